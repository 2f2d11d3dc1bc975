// auth/models.go
package auth

import (
	"context"
	"time"
)

// OAuthToken is the token bundle returned by Xero. One current bundle
// is kept per user and replaced wholesale on refresh.
type OAuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenStore persists one OAuth token bundle per user.
type TokenStore interface {
	SaveToken(ctx context.Context, userID string, token *OAuthToken) error
	GetToken(ctx context.Context, userID string) (*OAuthToken, error)
	DeleteToken(ctx context.Context, userID string) error
}

// StateStore persists single-use CSRF state values for the OAuth flow.
// ConsumeState must atomically remove the state so a replayed callback
// with the same value is rejected.
type StateStore interface {
	SaveState(ctx context.Context, state, userID string) error
	ConsumeState(ctx context.Context, state string) (userID string, err error)
}

// OAuthConfig holds OAuth 2.0 configuration for the Xero identity service.
type OAuthConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	Scopes        []string
	AuthorizeURL  string
	TokenURL      string
	RevocationURL string
}
