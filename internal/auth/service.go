// auth/service.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

// ConnectionLister fetches the organisations an access token can reach.
type ConnectionLister interface {
	GetConnections(ctx context.Context, accessToken string) ([]xeroclient.Connection, error)
}

// Service owns the Xero OAuth 2.0 flow: authorization URL generation,
// code exchange, token storage and the refresh-or-reauthorize decision.
type Service struct {
	config      OAuthConfig
	tokens      TokenStore
	states      StateStore
	connections ConnectionLister
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewService creates a new auth service
func NewService(config OAuthConfig, tokens TokenStore, states StateStore, connections ConnectionLister, logger *zap.Logger) *Service {
	return &Service{
		config:      config,
		tokens:      tokens,
		states:      states,
		connections: connections,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// GenerateAuthorizationURL builds the Xero authorize redirect for a
// user, persisting a fresh single-use CSRF state bound to them.
func (s *Service) GenerateAuthorizationURL(ctx context.Context, userID string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	if err := s.states.SaveState(ctx, state, userID); err != nil {
		return "", fmt.Errorf("failed to persist state: %w", err)
	}

	u, err := url.Parse(s.config.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorize URL: %w", err)
	}

	q := u.Query()
	q.Set("client_id", s.config.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(s.config.Scopes, " "))
	q.Set("redirect_uri", s.config.RedirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// generateState creates a secure random state value for OAuth
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConsumeState validates a callback state and resolves it to the user
// who initiated the flow. Each state value is usable exactly once.
func (s *Service) ConsumeState(ctx context.Context, state string) (string, error) {
	return s.states.ConsumeState(ctx, state)
}

// ExchangeCodeForToken swaps an authorization code for a token bundle.
// Failures are never retried; the caller must restart the flow.
func (s *Service) ExchangeCodeForToken(ctx context.Context, code string) (*OAuthToken, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", s.config.RedirectURI)

	token, err := s.executeTokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return token, nil
}

// GetToken returns the stored token bundle without any network call.
func (s *Service) GetToken(ctx context.Context, userID string) (*OAuthToken, error) {
	return s.tokens.GetToken(ctx, userID)
}

// StoreToken replaces any prior bundle for the user.
func (s *Service) StoreToken(ctx context.Context, userID string, token *OAuthToken) error {
	return s.tokens.SaveToken(ctx, userID, token)
}

// RefreshToken exchanges the stored refresh token for a new bundle and
// persists it before returning. A failed refresh almost always means
// the refresh token itself is dead, so instead of a generic error the
// caller gets a ReauthorizationError carrying a fresh authorization URL.
func (s *Service) RefreshToken(ctx context.Context, userID string) (*OAuthToken, error) {
	token, err := s.tokens.GetToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", token.RefreshToken)

	newToken, err := s.executeTokenRequest(ctx, data)
	if err != nil {
		s.logger.Warn("token refresh rejected, requesting re-consent",
			zap.String("user_id", userID), zap.Error(err))

		authURL, urlErr := s.GenerateAuthorizationURL(ctx, userID)
		if urlErr != nil {
			return nil, fmt.Errorf("failed to build reauthorization URL: %w", urlErr)
		}
		return nil, &ReauthorizationError{AuthorizationURL: authURL, Err: err}
	}

	newToken.ExpiresAt = time.Now().Add(time.Duration(newToken.ExpiresIn) * time.Second)

	// Xero rotates refresh tokens; keep the old one only if the
	// response omitted a replacement.
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = token.RefreshToken
	}

	// The new bundle must be durable before any caller retries a fetch.
	if err := s.tokens.SaveToken(ctx, userID, newToken); err != nil {
		return nil, fmt.Errorf("failed to save refreshed token: %w", err)
	}

	return newToken, nil
}

// GetConnections lists the user's authorised organisations. Failures
// collapse to an empty list: no connections is a valid, handled outcome
// and the callback flow treats it as such.
func (s *Service) GetConnections(ctx context.Context, accessToken string) []xeroclient.Connection {
	connections, err := s.connections.GetConnections(ctx, accessToken)
	if err != nil {
		s.logger.Error("failed to get xero connections", zap.Error(err))
		return nil
	}
	return connections
}

// Disconnect revokes both tokens upstream and removes the stored bundle.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	token, err := s.tokens.GetToken(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.revokeToken(ctx, token.AccessToken); err != nil {
		return err
	}
	if err := s.revokeToken(ctx, token.RefreshToken); err != nil {
		return err
	}

	return s.tokens.DeleteToken(ctx, userID)
}

// executeTokenRequest performs a request against the token endpoint
// with HTTP Basic credentials.
func (s *Service) executeTokenRequest(ctx context.Context, data url.Values) (*OAuthToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("failed to create token request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token OAuthToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("failed to parse token response: %w", err)}
	}

	return &token, nil
}

// revokeToken revokes a single token with the identity service.
func (s *Service) revokeToken(ctx context.Context, token string) error {
	data := url.Values{}
	data.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.RevocationURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revoke request failed with status %d: %s", resp.StatusCode, body)
	}

	return nil
}
