package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/internal/tenant"
	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

func newCallbackFixture(t *testing.T, connections []xeroclient.Connection) (*Handler, *Service, *tenant.MemoryDirectory, func()) {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token": "access-1", "refresh_token": "refresh-1", "token_type": "Bearer", "expires_in": 1800}`))
	}))

	tokens := newMemoryTokenStore()
	states := NewMemoryStateStore()
	svc := NewService(OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/auth/callback",
		AuthorizeURL: "https://login.xero.com/identity/connect/authorize",
		TokenURL:     tokenServer.URL,
	}, tokens, states, &fakeConnections{connections: connections}, zap.NewNop())

	tenants := tenant.NewMemoryDirectory()
	handler := NewHandler(svc, tenants, zap.NewNop())

	return handler, svc, tenants, tokenServer.Close
}

func callbackRequest(code, state string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/auth/callback?code="+code+"&state="+state, nil)
}

func TestCallbackStoresTokenAndTenants(t *testing.T) {
	handler, svc, tenants, cleanup := newCallbackFixture(t, []xeroclient.Connection{
		{TenantID: "t-1", AuthEventID: "e-1", TenantType: "ORGANISATION", TenantName: "Acme Co"},
	})
	defer cleanup()

	authURL, err := svc.GenerateAuthorizationURL(context.Background(), "user-1")
	require.NoError(t, err)
	state := mustQueryParam(t, authURL, "state")

	rec := httptest.NewRecorder()
	handler.CallbackHandler(rec, callbackRequest("the-code", state))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "success", body["status"])

	token, err := svc.GetToken(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "access-1", token.AccessToken)

	found, err := tenants.GetByName(context.Background(), "user-1", "Acme Co")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "t-1", found.TenantID)
}

func TestCallbackRejectsReplayedState(t *testing.T) {
	handler, svc, _, cleanup := newCallbackFixture(t, []xeroclient.Connection{
		{TenantID: "t-1", TenantName: "Acme Co"},
	})
	defer cleanup()

	authURL, err := svc.GenerateAuthorizationURL(context.Background(), "user-1")
	require.NoError(t, err)
	state := mustQueryParam(t, authURL, "state")

	rec := httptest.NewRecorder()
	handler.CallbackHandler(rec, callbackRequest("the-code", state))
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the same state must never succeed.
	rec = httptest.NewRecorder()
	handler.CallbackHandler(rec, callbackRequest("the-code", state))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	handler, _, _, cleanup := newCallbackFixture(t, nil)
	defer cleanup()

	rec := httptest.NewRecorder()
	handler.CallbackHandler(rec, callbackRequest("the-code", "never-issued"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackRequiresCodeAndState(t *testing.T) {
	handler, _, _, cleanup := newCallbackFixture(t, nil)
	defer cleanup()

	rec := httptest.NewRecorder()
	handler.CallbackHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackWithoutConnections(t *testing.T) {
	handler, svc, _, cleanup := newCallbackFixture(t, nil)
	defer cleanup()

	authURL, err := svc.GenerateAuthorizationURL(context.Background(), "user-1")
	require.NoError(t, err)
	state := mustQueryParam(t, authURL, "state")

	rec := httptest.NewRecorder()
	handler.CallbackHandler(rec, callbackRequest("the-code", state))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConnectReturnsAuthorizationURL(t *testing.T) {
	handler, _, _, cleanup := newCallbackFixture(t, nil)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/auth/connect", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))

	rec := httptest.NewRecorder()
	handler.ConnectHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["authorization_url"], "login.xero.com")
	require.Contains(t, body["authorization_url"], "state=")
}
