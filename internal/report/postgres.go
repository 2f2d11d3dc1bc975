// report/postgres.go
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store backed by the reports and
// account_values tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres-backed report store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateWithValues writes the report and all of its account values in
// one transaction. Readers never observe a report without its rows.
func (s *PostgresStore) CreateWithValues(ctx context.Context, r *Report, values []AccountValue) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reports (id, user_id, period, account_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.UserID, r.Period, r.AccountType, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{r.ID, v.AccountName, v.XeroAccountID, v.AccountBalance}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"account_values"},
		[]string{"report_id", "account_name", "xero_account_id", "account_balance"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert account values: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	return nil
}

// ListByUser returns a user's reports, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, period, account_type, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.UserID, &r.Period, &r.AccountType, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Get returns one report scoped to its owner.
func (s *PostgresStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Report, error) {
	var r Report
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, period, account_type, created_at
		FROM reports
		WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&r.ID, &r.UserID, &r.Period, &r.AccountType, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &r, nil
}

// GetValues returns a report's account values ordered by account name.
func (s *PostgresStore) GetValues(ctx context.Context, reportID uuid.UUID) ([]AccountValue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT report_id, account_name, xero_account_id, account_balance
		FROM account_values
		WHERE report_id = $1
		ORDER BY account_name`,
		reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account values: %w", err)
	}
	defer rows.Close()

	var values []AccountValue
	for rows.Next() {
		var v AccountValue
		if err := rows.Scan(&v.ReportID, &v.AccountName, &v.XeroAccountID, &v.AccountBalance); err != nil {
			return nil, fmt.Errorf("failed to scan account value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
