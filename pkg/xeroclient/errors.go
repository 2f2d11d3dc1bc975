// xeroclient/errors.go
package xeroclient

import (
	"errors"
	"fmt"
)

// ErrTokenExpired signals an upstream 401. The caller is expected to
// refresh the token and retry; it is never surfaced to end users.
var ErrTokenExpired = errors.New("xero access token expired")

// UpstreamError represents any non-401 HTTP or transport failure from
// the Xero API. Raw transport errors never escape this package.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xero request failed: %v", e.Err)
	}
	return fmt.Sprintf("xero request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
