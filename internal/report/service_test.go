package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/internal/auth"
	"github.com/ledgerline/xeroreports/internal/tenant"
	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

type fakeTokens struct {
	token        *auth.OAuthToken
	getErr       error
	refreshed    *auth.OAuthToken
	refreshErr   error
	refreshCalls int
}

func (f *fakeTokens) GetToken(ctx context.Context, userID string) (*auth.OAuthToken, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.token, nil
}

func (f *fakeTokens) RefreshToken(ctx context.Context, userID string) (*auth.OAuthToken, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

func newTestOrchestrator(t *testing.T, tokens *fakeTokens, upstream *fakeUpstream) (*Service, *MemoryStore) {
	t.Helper()

	tenants := tenant.NewMemoryDirectory()
	require.NoError(t, tenants.Upsert(context.Background(), tenant.Tenant{
		TenantID:   "t-1",
		TenantName: "Acme Co",
		UserID:     "user-1",
	}))

	store := NewMemoryStore()
	engine := NewEngine(upstream, zap.NewNop())
	return NewService(tokens, tenants, engine, store, zap.NewNop()), store
}

func TestGenerateReportEndToEnd(t *testing.T) {
	tokens := &fakeTokens{token: &auth.OAuthToken{AccessToken: "access-1"}}
	upstream := &fakeUpstream{
		accounts: []xeroclient.Account{{AccountID: "A1", Name: "Cash"}},
		balances: map[string]float64{"A1": 250.00},
	}
	svc, store := newTestOrchestrator(t, tokens, upstream)

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.GenerateReport(context.Background(), "user-1", "Acme Co", period, "ASSET")
	require.NoError(t, err)
	require.Equal(t, "user-1", created.UserID)
	require.Equal(t, period, created.Period)
	require.Equal(t, "ASSET", created.AccountType)
	require.Zero(t, tokens.refreshCalls)

	reports, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)

	values, err := store.GetValues(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	require.Equal(t, "A1", values[0].XeroAccountID)
	require.Equal(t, "Cash", values[0].AccountName)
	require.InDelta(t, 250.00, values[0].AccountBalance, 0.001)
}

func TestGenerateReportRefreshesOnceOnExpiry(t *testing.T) {
	tokens := &fakeTokens{
		token:     &auth.OAuthToken{AccessToken: "access-stale"},
		refreshed: &auth.OAuthToken{AccessToken: "access-fresh"},
	}
	upstream := &fakeUpstream{
		accounts:        []xeroclient.Account{{AccountID: "A1", Name: "Cash"}},
		balances:        map[string]float64{"A1": 250.00},
		accountsErrOnce: xeroclient.ErrTokenExpired,
	}
	svc, store := newTestOrchestrator(t, tokens, upstream)

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.GenerateReport(context.Background(), "user-1", "Acme Co", period, "ASSET")
	require.NoError(t, err)
	require.Equal(t, 1, tokens.refreshCalls)

	// One original fetch, one retry, and the retry used the fresh token.
	require.EqualValues(t, 2, upstream.accountsCalls)
	require.Equal(t, []string{"access-stale", "access-fresh"}, upstream.seenTokens)

	values, err := store.GetValues(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
}

func TestGenerateReportSecondExpiryIsTerminal(t *testing.T) {
	tokens := &fakeTokens{
		token:     &auth.OAuthToken{AccessToken: "access-stale"},
		refreshed: &auth.OAuthToken{AccessToken: "access-fresh"},
	}
	upstream := &fakeUpstream{
		accountsErr: xeroclient.ErrTokenExpired,
		balances:    map[string]float64{},
	}
	svc, store := newTestOrchestrator(t, tokens, upstream)

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), "user-1", "Acme Co", period, "ASSET")
	require.ErrorIs(t, err, ErrGenerationFailed)

	// No second refresh, no third fetch.
	require.Equal(t, 1, tokens.refreshCalls)
	require.EqualValues(t, 2, upstream.accountsCalls)

	reports, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, reports)
}

func TestGenerateReportPropagatesReauthorization(t *testing.T) {
	tokens := &fakeTokens{
		token:      &auth.OAuthToken{AccessToken: "access-stale"},
		refreshErr: &auth.ReauthorizationError{AuthorizationURL: "https://login.xero.com/authorize?state=s", Err: errors.New("invalid_grant")},
	}
	upstream := &fakeUpstream{
		accountsErr: xeroclient.ErrTokenExpired,
		balances:    map[string]float64{},
	}
	svc, _ := newTestOrchestrator(t, tokens, upstream)

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), "user-1", "Acme Co", period, "ASSET")

	var reauth *auth.ReauthorizationError
	require.ErrorAs(t, err, &reauth)
	require.Equal(t, "https://login.xero.com/authorize?state=s", reauth.AuthorizationURL)

	// A failed refresh means no retried fetch at all.
	require.EqualValues(t, 1, upstream.accountsCalls)
}

func TestGenerateReportTenantNotFound(t *testing.T) {
	tokens := &fakeTokens{token: &auth.OAuthToken{AccessToken: "access-1"}}
	svc, _ := newTestOrchestrator(t, tokens, &fakeUpstream{balances: map[string]float64{}})

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), "user-1", "Globex", period, "ASSET")
	require.ErrorIs(t, err, ErrTenantNotFound)
}

func TestGenerateReportWithoutConnection(t *testing.T) {
	tokens := &fakeTokens{getErr: auth.ErrNoToken}
	svc, _ := newTestOrchestrator(t, tokens, &fakeUpstream{balances: map[string]float64{}})

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), "user-1", "Acme Co", period, "ASSET")
	require.ErrorIs(t, err, auth.ErrNoToken)
}

func TestGenerateReportAtomicity(t *testing.T) {
	tokens := &fakeTokens{token: &auth.OAuthToken{AccessToken: "access-1"}}
	upstream := &fakeUpstream{
		accounts: []xeroclient.Account{{AccountID: "A1", Name: "Cash"}},
		balances: map[string]float64{"A1": 250.00},
	}
	svc, store := newTestOrchestrator(t, tokens, upstream)
	store.FailValues = errors.New("write failed")

	period := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), "user-1", "Acme Co", period, "ASSET")
	require.Error(t, err)

	// A failed bulk write leaves no report visible at all.
	reports, listErr := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, listErr)
	require.Empty(t, reports)
}
