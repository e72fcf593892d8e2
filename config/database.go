package config

import "time"

// RedisConfig contains session store configuration. The gateway keeps
// all session state in Redis; direct, sentinel, and cluster topologies
// are supported.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	// KeyPrefix namespaces session keys so several environments can
	// share one Redis.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"gwsession:"`

	// SessionTTL caps how long an idle session record survives.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}
