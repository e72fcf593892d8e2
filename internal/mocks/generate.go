// Package mocks provides generated mock implementations for testing the gateway.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the hexagonal ports. To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockSessionStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "sess-1").Return(sess, nil)
package mocks

// Generate mocks for the auth ports used by the pipeline:
// SessionStore, AccountAPI, TokenRefresher, ProfileAPI, MetricsSink.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ports_mock.go github.com/lessonloop/gateway/internal/ports SessionStore,AccountAPI,TokenRefresher,ProfileAPI,MetricsSink
