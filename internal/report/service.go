// report/service.go
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/internal/auth"
	"github.com/ledgerline/xeroreports/internal/tenant"
	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

// TokenProvider is the slice of the auth service the orchestrator needs.
type TokenProvider interface {
	GetToken(ctx context.Context, userID string) (*auth.OAuthToken, error)
	RefreshToken(ctx context.Context, userID string) (*auth.OAuthToken, error)
}

// Service orchestrates report generation: tenant resolution, synthesis,
// the single refresh-and-retry on token expiry, and atomic persistence.
type Service struct {
	tokens  TokenProvider
	tenants tenant.Directory
	engine  *Engine
	store   Store
	logger  *zap.Logger
}

// NewService creates a new report service
func NewService(tokens TokenProvider, tenants tenant.Directory, engine *Engine, store Store, logger *zap.Logger) *Service {
	return &Service{
		tokens:  tokens,
		tenants: tenants,
		engine:  engine,
		store:   store,
		logger:  logger,
	}
}

// GenerateReport builds and persists a snapshot for the named tenant.
// period must be the first day of a month; the upstream reports are
// read as of the last day of that month.
//
// Token expiry during the fetch triggers exactly one refresh followed
// by exactly one retried fetch. A refresh rejection propagates as
// auth.ReauthorizationError so the transport layer can hand the user an
// authorization URL. A failed retry is terminal.
func (s *Service) GenerateReport(ctx context.Context, userID, tenantName string, period time.Time, accountType string) (*Report, error) {
	asOf := endOfMonth(period)

	t, err := s.tenants.GetByName(ctx, userID, tenantName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if t == nil {
		return nil, ErrTenantNotFound
	}

	token, err := s.tokens.GetToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances, err := s.engine.Synthesize(ctx, t.TenantID, asOf, accountType, token.AccessToken)
	if errors.Is(err, xeroclient.ErrTokenExpired) {
		s.logger.Info("access token expired, refreshing", zap.String("user_id", userID))

		token, err = s.tokens.RefreshToken(ctx, userID)
		if err != nil {
			return nil, err
		}

		balances, err = s.engine.Synthesize(ctx, t.TenantID, asOf, accountType, token.AccessToken)
		if err != nil {
			s.logger.Error("synthesis failed after token refresh",
				zap.String("user_id", userID), zap.Error(err))
			return nil, fmt.Errorf("%w after token refresh: %v", ErrGenerationFailed, err)
		}
	} else if err != nil {
		return nil, err
	}

	r := &Report{
		ID:          uuid.New(),
		UserID:      userID,
		Period:      period,
		AccountType: accountType,
		CreatedAt:   time.Now(),
	}

	values := make([]AccountValue, 0, len(balances))
	for accountID, balance := range balances {
		values = append(values, AccountValue{
			ReportID:       r.ID,
			AccountName:    balance.Name,
			XeroAccountID:  accountID,
			AccountBalance: balance.Balance,
		})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].AccountName < values[j].AccountName
	})

	if err := s.store.CreateWithValues(ctx, r, values); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	s.logger.Info("report generated",
		zap.String("user_id", userID),
		zap.String("tenant_id", t.TenantID),
		zap.String("report_id", r.ID.String()),
		zap.Int("accounts", len(values)))

	return r, nil
}

// ListReports returns the user's reports, newest first.
func (s *Service) ListReports(ctx context.Context, userID string) ([]Report, error) {
	return s.store.ListByUser(ctx, userID)
}

// GetReport returns one report scoped to the requesting user.
func (s *Service) GetReport(ctx context.Context, userID string, id uuid.UUID) (*Report, error) {
	return s.store.Get(ctx, userID, id)
}

// GetReportDetails returns a report together with its account values.
func (s *Service) GetReportDetails(ctx context.Context, userID string, id uuid.UUID) (*Report, []AccountValue, error) {
	r, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	values, err := s.store.GetValues(ctx, r.ID)
	if err != nil {
		return nil, nil, err
	}
	return r, values, nil
}
