package identity

// Package identity provides the HTTP adapter for the identity
// provider: OIDC endpoint discovery, the account-info (userinfo)
// check used by the account validator, and refresh-token exchange.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/ports"
)

// DefaultTimeout bounds every remote account check. The account
// validator sits on the critical path of every complete-level request,
// so a hung provider must turn into a bounded, non-fatal failure.
const DefaultTimeout = 5 * time.Second

// Endpoints are the discovered identity-provider endpoints.
type Endpoints struct {
	Issuer      string
	UserinfoURL string
	TokenURL    string
}

// Discover resolves provider endpoints from the OIDC discovery
// document. The issuer may be given with or without the
// /.well-known/openid-configuration suffix.
func Discover(ctx context.Context, issuer string, httpClient *http.Client) (Endpoints, error) {
	if issuer == "" {
		return Endpoints{}, errors.New("issuer is required")
	}
	if httpClient != nil {
		ctx = gooidc.ClientContext(ctx, httpClient)
	}

	issuer = strings.TrimSuffix(issuer, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return Endpoints{}, fmt.Errorf("oidc discovery: %w", err)
	}

	var doc struct {
		UserinfoEndpoint string `json:"userinfo_endpoint"`
	}
	if claimsErr := op.Claims(&doc); claimsErr != nil {
		return Endpoints{}, fmt.Errorf("decode discovery document: %w", claimsErr)
	}
	if doc.UserinfoEndpoint == "" {
		return Endpoints{}, errors.New("discovery document has no userinfo_endpoint")
	}

	return Endpoints{
		Issuer:      issuer,
		UserinfoURL: doc.UserinfoEndpoint,
		TokenURL:    op.Endpoint().TokenURL,
	}, nil
}

// Config holds configuration for the identity client.
type Config struct {
	UserinfoURL  string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration // defaults to DefaultTimeout
	HTTPClient   *http.Client  // optional
}

// Client talks to the identity provider. It implements both
// ports.AccountAPI and ports.TokenRefresher.
type Client struct {
	userinfoURL string
	timeout     time.Duration
	httpClient  *http.Client
	oauth       *oauth2.Config
}

var (
	_ ports.AccountAPI     = (*Client)(nil)
	_ ports.TokenRefresher = (*Client)(nil)
)

// NewClient creates a new identity client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserinfoURL == "" {
		return nil, errors.New("userinfo URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		userinfoURL: cfg.UserinfoURL,
		timeout:     timeout,
		httpClient:  httpClient,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
	}, nil
}

// FetchAccount asks the provider's account-info endpoint whether the
// account behind accessToken is still in good standing. The error
// class encodes the contract the pipeline depends on: an explicit
// 401/403 is a provider rejection (fatal), while everything else that
// can go wrong (timeout, connection failure, 5xx) is an infrastructure
// failure the caller must treat as non-fatal.
func (c *Client) FetchAccount(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return autherrors.Credential("no access token")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return autherrors.Unavailable("build userinfo request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return autherrors.Unavailable("userinfo request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return autherrors.ProviderRejected(fmt.Sprintf("identity provider rejected account: %d", resp.StatusCode))
	default:
		return autherrors.Unavailable(fmt.Sprintf("identity provider returned %d", resp.StatusCode), nil)
	}
}

// Refresh exchanges a refresh token for fresh credentials. A provider
// rejection of the grant is a refresh failure (the session must carry
// the marker); transport problems are reported as unavailable.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (ports.TokenPair, error) {
	if refreshToken == "" {
		return ports.TokenPair{}, autherrors.RefreshFailed(errors.New("no refresh token"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return ports.TokenPair{}, autherrors.RefreshFailed(err)
		}
		return ports.TokenPair{}, autherrors.Unavailable("token refresh request failed", err)
	}

	pair := ports.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	// Providers may omit the rotated refresh token; keep the old one.
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}
