package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redisadapter "github.com/lessonloop/gateway/internal/adapters/redis"
	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/mocks"
	"github.com/lessonloop/gateway/internal/ports"
)

func freshSession() domainauth.Session {
	return domainauth.Session{
		ID:             "sess-1",
		UserID:         "user-1",
		Role:           domainauth.RoleStudent,
		AccessToken:    "a.b.c",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(10 * time.Minute),
		ExpiresAt:      time.Now().Add(time.Hour),
	}
}

func TestGetSession_NoID(t *testing.T) {
	svc := NewSessionService(SessionServiceOptions{})
	sess, err := svc.GetSession(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetSession_NotFoundIsAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "unknown").Return(domainauth.Session{}, redisadapter.ErrNotFound)

	svc := NewSessionService(SessionServiceOptions{Store: store})
	sess, err := svc.GetSession(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetSession_FreshTokenNotRefreshed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	refresher := mocks.NewMockTokenRefresher(ctrl)

	stored := freshSession()
	store.EXPECT().Get(gomock.Any(), "sess-1").Return(stored, nil)

	svc := NewSessionService(SessionServiceOptions{Store: store, Refresher: refresher})
	sess, err := svc.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "a.b.c", sess.AccessToken)
}

func TestGetSession_StaleTokenRefreshedAndSaved(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	refresher := mocks.NewMockTokenRefresher(ctrl)

	stored := freshSession()
	stored.TokenExpiresAt = time.Now().Add(-time.Minute)
	store.EXPECT().Get(gomock.Any(), "sess-1").Return(stored, nil)
	refresher.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(ports.TokenPair{
		AccessToken:  "d.e.f",
		RefreshToken: "refresh-2",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	svc := NewSessionService(SessionServiceOptions{Store: store, Refresher: refresher})
	sess, err := svc.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "d.e.f", sess.AccessToken)
	assert.Equal(t, "refresh-2", sess.RefreshToken)
	assert.False(t, sess.HasRefreshError())
}

func TestGetSession_RejectedRefreshSetsMarker(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	refresher := mocks.NewMockTokenRefresher(ctrl)

	stored := freshSession()
	stored.TokenExpiresAt = time.Now().Add(-time.Minute)
	store.EXPECT().Get(gomock.Any(), "sess-1").Return(stored, nil)
	refresher.EXPECT().Refresh(gomock.Any(), "refresh-1").
		Return(ports.TokenPair{}, autherrors.RefreshFailed(errors.New("invalid_grant")))
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	svc := NewSessionService(SessionServiceOptions{Store: store, Refresher: refresher})
	sess, err := svc.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.HasRefreshError())
}

func TestGetSession_UnavailableRefreshLeavesSessionAlone(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	refresher := mocks.NewMockTokenRefresher(ctrl)

	stored := freshSession()
	stored.TokenExpiresAt = time.Now().Add(-time.Minute)
	store.EXPECT().Get(gomock.Any(), "sess-1").Return(stored, nil)
	refresher.EXPECT().Refresh(gomock.Any(), "refresh-1").
		Return(ports.TokenPair{}, autherrors.Unavailable("token endpoint down", nil))

	svc := NewSessionService(SessionServiceOptions{Store: store, Refresher: refresher})
	sess, err := svc.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.False(t, sess.HasRefreshError())
	assert.Equal(t, "a.b.c", sess.AccessToken)
}

func TestGetSession_MarkedSessionSkipsRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	refresher := mocks.NewMockTokenRefresher(ctrl)

	stored := freshSession()
	stored.TokenExpiresAt = time.Now().Add(-time.Minute)
	stored.RefreshError = "refresh_token_failed"
	store.EXPECT().Get(gomock.Any(), "sess-1").Return(stored, nil)

	svc := NewSessionService(SessionServiceOptions{Store: store, Refresher: refresher})
	sess, err := svc.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.HasRefreshError())
}

func TestGetSession_ExchangeFailurePropagatesClass(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "sess-1").
		Return(domainauth.Session{}, autherrors.ExchangeFailed(errors.New("invalid_grant")))

	svc := NewSessionService(SessionServiceOptions{Store: store})
	_, err := svc.GetSession(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, autherrors.IsExchangeFailure(err))
}

func TestGetSession_OtherStoreErrorsPropagate(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	storeErr := errors.New("redis: connection refused")
	store.EXPECT().Get(gomock.Any(), "sess-1").Return(domainauth.Session{}, storeErr)

	svc := NewSessionService(SessionServiceOptions{Store: store})
	_, err := svc.GetSession(context.Background(), "sess-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, autherrors.IsExchangeFailure(err))
}

func TestLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Delete(gomock.Any(), "sess-1").Return(nil)

	svc := NewSessionService(SessionServiceOptions{Store: store})
	assert.NoError(t, svc.Logout(context.Background(), "sess-1"))

	// Empty ID is a no-op.
	assert.NoError(t, svc.Logout(context.Background(), ""))
}
