//go:build tools
// +build tools

// Package tools documents development tool dependencies.
package tools

// Development tools:
//
// mockgen - generates the port mocks in internal/mocks
//   Run: go generate ./internal/mocks
//   (uses go.uber.org/mock/mockgen via go run, pinned through go.mod)
//
// Air - live reload during local development
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
