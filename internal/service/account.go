package service

import (
	"context"
	"log/slog"
	"time"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/ports"
)

// Cache TTLs for account-validation verdicts. Successes are trusted
// for a while; explicit rejections are re-checked soon so a revoked
// account does not linger, but not on every request.
const (
	accountValidTTL    = 5 * time.Minute
	accountRejectedTTL = 30 * time.Second
)

// AccountValidatorOptions groups dependencies for AccountValidator.
type AccountValidatorOptions struct {
	Accounts ports.AccountAPI
	Cache    *ValidationCache
	Tokens   *TokenValidator
	Metrics  ports.MetricsSink
	Logger   *slog.Logger
}

// AccountValidator checks that the account behind a session is still
// known and in good standing at the identity provider, caching
// verdicts per user. Its central contract: rejection by the provider
// is fatal, infrastructure failure is not: a provider outage must
// never mass-log-out every active user.
type AccountValidator struct {
	accounts ports.AccountAPI
	cache    *ValidationCache
	tokens   *TokenValidator
	metrics  ports.MetricsSink
	logger   *slog.Logger
}

// NewAccountValidator constructs an AccountValidator.
func NewAccountValidator(opts AccountValidatorOptions) *AccountValidator {
	cache := opts.Cache
	if cache == nil {
		cache = NewValidationCache()
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = NewTokenValidator()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountValidator{
		accounts: opts.Accounts,
		cache:    cache,
		tokens:   tokens,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Cache exposes the shared verdict cache so the pipeline can clear it
// on session invalidation.
func (v *AccountValidator) Cache() *ValidationCache { return v.cache }

// ValidateAccount returns the account verdict for the session. Unless
// forceRefresh is set, a live cached verdict short-circuits without
// network I/O.
func (v *AccountValidator) ValidateAccount(
	ctx context.Context,
	sess *domainauth.Session,
	forceRefresh bool,
) domainauth.ValidationResult {
	if sess == nil || sess.AccessToken == "" {
		return domainauth.Invalid("no session token to validate")
	}

	claims, err := v.tokens.DecodeClaims(sess.AccessToken)
	if err != nil {
		return domainauth.Invalid("cannot derive user identifier from token")
	}
	userID := claims.UserID()
	if userID == "" {
		userID = sess.UserID
	}
	if userID == "" {
		return domainauth.Invalid("cannot derive user identifier from token")
	}

	if !forceRefresh {
		if isValid, ok := v.cache.Get(userID); ok {
			v.count("cache_hit")
			if isValid {
				return domainauth.Valid("account valid (from cache)")
			}
			return domainauth.Invalid("account rejected (from cache)")
		}
	}

	fetchErr := v.accounts.FetchAccount(ctx, sess.AccessToken)
	switch {
	case fetchErr == nil:
		v.cache.Set(userID, true, accountValidTTL)
		v.count("valid")
		return domainauth.Valid("account confirmed by identity provider")

	case autherrors.CodeOf(fetchErr) == autherrors.ErrCodeProviderRejected:
		v.cache.Set(userID, false, accountRejectedTTL)
		v.count("rejected")
		return domainauth.Invalid("identity provider rejected account")

	default:
		// Timeouts, 5xx, connection failures: the credential was never
		// judged, so the verdict is soft and nothing is cached.
		v.count("unavailable")
		v.logger.WarnContext(ctx, "account validation unavailable",
			"user_id", userID, "error", fetchErr)
		return domainauth.Unverified("identity provider unreachable")
	}
}

func (v *AccountValidator) count(outcome string) {
	if v.metrics == nil {
		return
	}
	v.metrics.Count("gateway.account_validation", 1, map[string]string{"outcome": outcome})
}
