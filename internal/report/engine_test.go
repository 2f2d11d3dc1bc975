package report

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

type fakeUpstream struct {
	accounts    []xeroclient.Account
	accountsErr error
	balances    map[string]float64
	balancesErr error

	accountsCalls int32
	balancesCalls int32

	// accountsErrOnce/balancesErrOnce fail only the first call.
	accountsErrOnce error
	balancesErrOnce error

	mu         sync.Mutex
	seenTokens []string
}

func (f *fakeUpstream) GetAccounts(ctx context.Context, tenantID, accountType, accessToken string) ([]xeroclient.Account, error) {
	f.mu.Lock()
	f.seenTokens = append(f.seenTokens, accessToken)
	f.mu.Unlock()

	calls := atomic.AddInt32(&f.accountsCalls, 1)
	if f.accountsErrOnce != nil && calls == 1 {
		return nil, f.accountsErrOnce
	}
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeUpstream) GetTrialBalance(ctx context.Context, tenantID string, asOf time.Time, accessToken string) (map[string]float64, error) {
	calls := atomic.AddInt32(&f.balancesCalls, 1)
	if f.balancesErrOnce != nil && calls == 1 {
		return nil, f.balancesErrOnce
	}
	if f.balancesErr != nil {
		return nil, f.balancesErr
	}
	return f.balances, nil
}

func TestSynthesizeJoinsByAccountID(t *testing.T) {
	upstream := &fakeUpstream{
		accounts: []xeroclient.Account{
			{AccountID: "A1", Name: "Cash"},
			{AccountID: "A2", Name: "Receivables"},
		},
		balances: map[string]float64{
			"A1": 250.00,
			"A3": 999.99, // not in the filtered list, must be dropped
		},
	}
	engine := NewEngine(upstream, zap.NewNop())

	result, err := engine.Synthesize(context.Background(), "t-1", time.Now(), "ASSET", "token-1")
	require.NoError(t, err)

	require.Len(t, result, 2)
	require.Equal(t, AccountBalance{Name: "Cash", Balance: 250.00}, result["A1"])
	// No trial-balance entry defaults to zero rather than omission.
	require.Equal(t, AccountBalance{Name: "Receivables", Balance: 0}, result["A2"])
	require.NotContains(t, result, "A3")
}

func TestSynthesizeRunsBothFetches(t *testing.T) {
	upstream := &fakeUpstream{
		accounts: []xeroclient.Account{{AccountID: "A1", Name: "Cash"}},
		balances: map[string]float64{"A1": 1},
	}
	engine := NewEngine(upstream, zap.NewNop())

	_, err := engine.Synthesize(context.Background(), "t-1", time.Now(), "ASSET", "token-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, upstream.accountsCalls)
	require.EqualValues(t, 1, upstream.balancesCalls)
}

func TestSynthesizeTokenExpiredWins(t *testing.T) {
	// Expiry on the accounts side.
	engine := NewEngine(&fakeUpstream{
		accountsErr: xeroclient.ErrTokenExpired,
		balances:    map[string]float64{},
	}, zap.NewNop())
	_, err := engine.Synthesize(context.Background(), "t-1", time.Now(), "ASSET", "stale")
	require.ErrorIs(t, err, xeroclient.ErrTokenExpired)

	// Expiry on the trial-balance side, even when the other fetch also failed.
	engine = NewEngine(&fakeUpstream{
		accountsErr: &xeroclient.UpstreamError{StatusCode: 500, Body: "boom"},
		balancesErr: xeroclient.ErrTokenExpired,
	}, zap.NewNop())
	_, err = engine.Synthesize(context.Background(), "t-1", time.Now(), "ASSET", "stale")
	require.ErrorIs(t, err, xeroclient.ErrTokenExpired)
}

func TestSynthesizeUpstreamFailureDiscardsPartialData(t *testing.T) {
	engine := NewEngine(&fakeUpstream{
		accounts:    []xeroclient.Account{{AccountID: "A1", Name: "Cash"}},
		balancesErr: &xeroclient.UpstreamError{StatusCode: 503, Body: "unavailable"},
	}, zap.NewNop())

	result, err := engine.Synthesize(context.Background(), "t-1", time.Now(), "ASSET", "token-1")
	require.Nil(t, result)

	var upstream *xeroclient.UpstreamError
	require.ErrorAs(t, err, &upstream)
}
