// report/models.go
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Report is a stored financial snapshot for one user, period and
// account category. Immutable once created.
type Report struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Period      time.Time `json:"period"`
	AccountType string    `json:"account_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccountValue is one account's balance within a report. Rows are
// created in bulk with their report and never mutated.
type AccountValue struct {
	ReportID       uuid.UUID `json:"-"`
	AccountName    string    `json:"account_name"`
	XeroAccountID  string    `json:"xero_account_id"`
	AccountBalance float64   `json:"account_balance"`
}

// Store persists reports and their account values. CreateWithValues is
// atomic: a report is never observable without its account rows.
type Store interface {
	CreateWithValues(ctx context.Context, r *Report, values []AccountValue) error
	ListByUser(ctx context.Context, userID string) ([]Report, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*Report, error)
	GetValues(ctx context.Context, reportID uuid.UUID) ([]AccountValue, error)
}
