// auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

// ErrNoToken indicates the user has no stored token bundle.
var ErrNoToken = errors.New("no token found for user")

// ErrStateInvalid indicates an OAuth callback carried a state value
// that was never issued or has already been consumed.
var ErrStateInvalid = errors.New("invalid or expired state parameter")

// ExchangeError indicates the authorization-code exchange was rejected
// by the identity service. It carries the upstream response text for
// diagnostics; the only recovery is restarting the authorization flow.
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// ReauthorizationError indicates the refresh token is no longer usable
// and the user must re-consent. It carries a freshly minted
// authorization URL for the client to redirect to.
type ReauthorizationError struct {
	AuthorizationURL string
	Err              error
}

func (e *ReauthorizationError) Error() string {
	return fmt.Sprintf("reauthorization required: %v", e.Err)
}

func (e *ReauthorizationError) Unwrap() error {
	return e.Err
}
