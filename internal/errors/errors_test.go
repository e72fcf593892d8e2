package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := Credential("token expired")
	assert.Equal(t, "token expired", e.Error())

	wrapped := Unavailable("userinfo request failed", errors.New("dial tcp: timeout"))
	assert.Equal(t, "userinfo request failed: dial tcp: timeout", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	e := RefreshFailed(cause)
	assert.ErrorIs(t, e, cause)
}

func TestExchangeFailed_MatchesSentinel(t *testing.T) {
	err := ExchangeFailed(errors.New("provider returned invalid_grant"))
	assert.True(t, IsExchangeFailure(err))
	assert.ErrorIs(t, err, ErrExchangeFailed)

	// Matching survives further wrapping at call sites.
	wrapped := fmt.Errorf("get session: %w", err)
	assert.True(t, IsExchangeFailure(wrapped))
}

func TestIsExchangeFailure_OtherClasses(t *testing.T) {
	assert.False(t, IsExchangeFailure(nil))
	assert.False(t, IsExchangeFailure(errors.New("boom")))
	assert.False(t, IsExchangeFailure(Credential("bad token")))
	assert.False(t, IsExchangeFailure(RefreshFailed(errors.New("expired"))))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeCredential, CodeOf(Credential("x")))
	assert.Equal(t, ErrCodeProviderRejected, CodeOf(fmt.Errorf("wrap: %w", ProviderRejected("revoked"))))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}
