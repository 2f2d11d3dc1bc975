// report/errors.go
package report

import "errors"

// ErrTenantNotFound indicates the named organisation is not connected
// for this user. A business-rule rejection, not a system failure.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrReportNotFound indicates the requested report does not exist or
// belongs to another user.
var ErrReportNotFound = errors.New("report not found")

// ErrGenerationFailed indicates synthesis failed terminally after the
// single refresh-and-retry was already spent.
var ErrGenerationFailed = errors.New("report generation failed")
