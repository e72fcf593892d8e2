package profile

// Package profile provides the HTTP adapter for the platform's
// profile API, used by the onboarding gate to fetch the caller's
// profile and tutor record on their own bearer token.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/ports"
)

// DefaultTimeout bounds profile and tutor-record fetches.
const DefaultTimeout = 5 * time.Second

// Config holds configuration for the profile client.
type Config struct {
	BaseURL    string        // e.g. "https://api.lessonloop.internal"
	Timeout    time.Duration // defaults to DefaultTimeout
	HTTPClient *http.Client  // optional
}

// Client fetches profile data over HTTP. Implements ports.ProfileAPI.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ ports.ProfileAPI = (*Client)(nil)

// NewClient creates a new profile client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{baseURL: cfg.BaseURL, timeout: timeout, httpClient: httpClient}, nil
}

type profilePayload struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	TutorID string `json:"tutor_id"`
}

// GetProfile fetches the caller's own profile.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (ports.Profile, error) {
	var payload profilePayload
	if err := c.getJSON(ctx, accessToken, "/v1/profiles/me", &payload); err != nil {
		return ports.Profile{}, err
	}

	return ports.Profile{
		UserID:  payload.ID,
		Email:   payload.Email,
		Role:    domainauth.Role(payload.Role),
		TutorID: payload.TutorID,
	}, nil
}

// GetTutorRecord fetches the full tutor record as a raw JSON document.
func (c *Client) GetTutorRecord(ctx context.Context, accessToken, tutorID string) (map[string]any, error) {
	if tutorID == "" {
		return nil, autherrors.Validation("tutor ID is required")
	}

	var record map[string]any
	if err := c.getJSON(ctx, accessToken, "/v1/tutors/"+url.PathEscape(tutorID), &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return autherrors.Unavailable("build profile request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return autherrors.Unavailable("profile request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return autherrors.NotFound("profile record not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return autherrors.Unavailable(fmt.Sprintf("profile API returned %d", resp.StatusCode), nil)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(dst); decodeErr != nil {
		return autherrors.Unavailable("decode profile response", decodeErr)
	}
	return nil
}
