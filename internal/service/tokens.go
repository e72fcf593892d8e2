package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
)

// issuedAtSkew is how far in the future an iat claim may sit before the
// token is considered forged. Covers ordinary clock drift between the
// issuer and the gateway.
const issuedAtSkew = 60 * time.Second

// TokenValidator performs the local, stateless check of a session's
// bearer token. The decode is deliberately unverified: the token's
// signature was checked by the identity layer when the session was
// established, and this validator only guards expiry and structural
// tampering at the gateway boundary. Do not turn it into a full
// signature verification without revisiting that trust split.
type TokenValidator struct {
	parser *jwt.Parser

	// now is overridable for tests.
	now func() time.Time
}

// NewTokenValidator constructs a TokenValidator.
func NewTokenValidator() *TokenValidator {
	return &TokenValidator{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
}

// DecodeClaims decodes the claim set of a bearer token without
// verifying its signature. Fails if the token is not structurally a
// JWT (three dot-separated segments with a decodable payload).
func (v *TokenValidator) DecodeClaims(token string) (domainauth.Claims, error) {
	if token == "" {
		return domainauth.Claims{}, fmt.Errorf("no token present")
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(token, mapClaims); err != nil {
		return domainauth.Claims{}, fmt.Errorf("decode token: %w", err)
	}

	var claims domainauth.Claims
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if name, ok := mapClaims["preferred_username"].(string); ok {
		claims.Username = name
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}

// ValidateExpiration checks the session's bearer token for expiry and
// structural sanity. Every rejection here is fatal: a malformed or
// expired credential has no transient explanation, so the verdict
// always carries ShouldInvalidateSession.
func (v *TokenValidator) ValidateExpiration(sess *domainauth.Session) domainauth.ValidationResult {
	if sess == nil || sess.AccessToken == "" {
		return domainauth.Invalid("no access token present")
	}

	claims, err := v.DecodeClaims(sess.AccessToken)
	if err != nil {
		return domainauth.Invalid("malformed access token")
	}

	now := v.now()

	// Tokens must declare an expiry; absence is indistinguishable from
	// tampering at this layer.
	if claims.ExpiresAt.IsZero() {
		return domainauth.Invalid("token has no expiration claim")
	}
	if claims.ExpiresAt.Before(now) {
		return domainauth.Invalid("token expired")
	}

	if !claims.IssuedAt.IsZero() && claims.IssuedAt.After(now.Add(issuedAtSkew)) {
		return domainauth.Invalid("token issued in the future")
	}

	if claims.UserID() == "" {
		return domainauth.Invalid("token has no subject claim")
	}

	return domainauth.Valid("token structurally valid and unexpired")
}
