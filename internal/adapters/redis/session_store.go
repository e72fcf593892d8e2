package redis

// Package redis provides the Redis-backed session store shared between
// the gateway and the application's login flow.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	autherrors "github.com/lessonloop/gateway/internal/errors"
)

// Record statuses. The login flow writes "active" records after a
// successful code exchange and stamps "exchange_error" when the
// exchange fails, so the gateway can recognize the handshake-failure
// class on the next request instead of seeing a half-built session.
const (
	statusActive        = "active"
	statusExchangeError = "exchange_error"
)

// sessionRecord is the JSON envelope stored in Redis.
type sessionRecord struct {
	Status  string             `json:"status"`
	Error   string             `json:"error,omitempty"`
	Session domainauth.Session `json:"session"`
}

// SessionStore is a Redis-based session store. TTLs follow the session
// absolute expiry so Redis evicts sessions the gateway would reject
// anyway, capped by an optional maximum.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	maxTTL time.Duration
}

// StoreOptions configures a SessionStore.
type StoreOptions struct {
	// Prefix namespaces keys; defaults to "gwsession:".
	Prefix string
	// MaxTTL, when positive, caps how long a record may live even if
	// the session's absolute expiry is further out.
	MaxTTL time.Duration
}

// NewSessionStore creates a session store with the default key prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithOptions(client, StoreOptions{})
}

// NewSessionStoreWithPrefix creates a session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return NewSessionStoreWithOptions(client, StoreOptions{Prefix: prefix})
}

// NewSessionStoreWithOptions creates a session store from StoreOptions.
func NewSessionStoreWithOptions(client redis.UniversalClient, opts StoreOptions) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "gwsession:"
	}
	return &SessionStore{client: client, prefix: prefix, maxTTL: opts.MaxTTL}
}

// Save persists an active session until its absolute expiry.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	data, err := json.Marshal(sessionRecord{Status: statusActive, Session: sess})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err()
}

// Get retrieves a session by ID. A record stamped by a failed code
// exchange is surfaced as an ErrExchangeFailed-class error so the
// pipeline can apply its dedicated recovery.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var rec sessionRecord
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	if rec.Status == statusExchangeError {
		return domainauth.Session{}, autherrors.ExchangeFailed(errors.New(rec.Error))
	}

	sess := rec.Session
	// Redis eviction can lag the absolute expiry.
	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ErrNotFound
	}

	return sess, nil
}

// Ping reports whether the backing Redis is reachable. The readiness
// endpoint depends on it.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// MarkExchangeFailed stamps a session slot with a code-exchange failure.
// The login flow calls this when the IdP callback cannot be completed;
// the short TTL keeps the marker around just long enough for the
// gateway's recovery path to see it.
func (s *SessionStore) MarkExchangeFailed(ctx context.Context, id, reason string) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sessionRecord{Status: statusExchangeError, Error: reason})
	if err != nil {
		return fmt.Errorf("marshal exchange marker: %w", err)
	}

	return s.client.Set(ctx, s.prefix+id, data, 5*time.Minute).Err()
}

// ErrNotFound is returned when a session is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrNotFound error = notFoundError{}
