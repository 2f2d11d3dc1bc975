// report/engine.go
package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

// Upstream is the slice of the Xero client the engine needs.
type Upstream interface {
	GetAccounts(ctx context.Context, tenantID, accountType, accessToken string) ([]xeroclient.Account, error)
	GetTrialBalance(ctx context.Context, tenantID string, asOf time.Time, accessToken string) (map[string]float64, error)
}

// AccountBalance is one joined entry of the synthesized report.
type AccountBalance struct {
	Name    string
	Balance float64
}

// Engine merges the Xero chart of accounts with the trial balance into
// a per-account balance map.
type Engine struct {
	upstream Upstream
	logger   *zap.Logger
}

// NewEngine creates a new report synthesis engine
func NewEngine(upstream Upstream, logger *zap.Logger) *Engine {
	return &Engine{
		upstream: upstream,
		logger:   logger,
	}
}

// Synthesize fetches the filtered account list and the trial balance
// concurrently and joins them by account ID. The account-type filter is
// authoritative: accounts only present in the trial balance are
// dropped, and accounts with no trial-balance entry get a zero balance.
// A 401 on either fetch surfaces as xeroclient.ErrTokenExpired so the
// caller can refresh and retry.
func (e *Engine) Synthesize(ctx context.Context, tenantID string, asOf time.Time, accountType, accessToken string) (map[string]AccountBalance, error) {
	var (
		accounts []xeroclient.Account
		balances map[string]float64
		accErr   error
		tbErr    error
	)

	// The two reads are independent, so their latency overlaps. This is
	// the only fan-out in the system and it is fixed at two.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		accounts, accErr = e.upstream.GetAccounts(ctx, tenantID, accountType, accessToken)
	}()
	go func() {
		defer wg.Done()
		balances, tbErr = e.upstream.GetTrialBalance(ctx, tenantID, asOf, accessToken)
	}()
	wg.Wait()

	// Token expiry wins over any other failure: it is the one error the
	// orchestrator knows how to recover from.
	if errors.Is(accErr, xeroclient.ErrTokenExpired) || errors.Is(tbErr, xeroclient.ErrTokenExpired) {
		return nil, xeroclient.ErrTokenExpired
	}
	if accErr != nil {
		return nil, accErr
	}
	if tbErr != nil {
		return nil, tbErr
	}

	result := make(map[string]AccountBalance, len(accounts))
	for _, account := range accounts {
		result[account.AccountID] = AccountBalance{
			Name:    account.Name,
			Balance: balances[account.AccountID],
		}
	}

	e.logger.Debug("synthesized report",
		zap.String("tenant_id", tenantID),
		zap.String("account_type", accountType),
		zap.Int("accounts", len(result)))

	return result, nil
}
