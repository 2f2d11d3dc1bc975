// auth/handlers.go
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/internal/tenant"
)

// Handler provides HTTP handlers for the Xero connection flow
type Handler struct {
	service *Service
	tenants tenant.Directory
	logger  *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *Service, tenants tenant.Directory, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		tenants: tenants,
		logger:  logger,
	}
}

// ConnectHandler returns the Xero authorization URL for the current user.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	authURL, err := h.service.GenerateAuthorizationURL(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to generate authorization URL",
			zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to generate authorization URL",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"authorization_url": authURL,
	})
}

// CallbackHandler completes the OAuth flow: validates the single-use
// state, exchanges the code, stores the token and records the user's
// connected organisations. The route is unauthenticated; the state
// value binds the callback to the user who started the flow.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if code == "" || state == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing code or state parameter",
		})
		return
	}

	userID, err := h.service.ConsumeState(r.Context(), state)
	if err != nil {
		if errors.Is(err, ErrStateInvalid) {
			h.logger.Warn("callback with invalid state")
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid state parameter",
			})
			return
		}
		h.logger.Error("failed to consume state", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to validate state",
		})
		return
	}

	token, err := h.service.ExchangeCodeForToken(r.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to exchange code for token",
		})
		return
	}

	if err := h.service.StoreToken(r.Context(), userID, token); err != nil {
		h.logger.Error("failed to store token", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to store token",
		})
		return
	}

	connections := h.service.GetConnections(r.Context(), token.AccessToken)
	if len(connections) == 0 {
		h.logger.Warn("no xero connections found", zap.String("user_id", userID))
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "No Xero connections found",
		})
		return
	}

	for _, conn := range connections {
		err := h.tenants.Upsert(r.Context(), tenant.Tenant{
			TenantID:    conn.TenantID,
			TenantName:  conn.TenantName,
			TenantType:  conn.TenantType,
			AuthEventID: conn.AuthEventID,
			UserID:      userID,
		})
		if err != nil {
			h.logger.Error("failed to store tenant",
				zap.String("user_id", userID), zap.String("tenant_id", conn.TenantID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to store tenant information",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Successfully connected to Xero",
	})
}

// StatusHandler returns the connection status for the current user.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := h.service.GetToken(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"connected": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected":  true,
		"expires_at": token.ExpiresAt,
	})
}

// DisconnectHandler revokes the user's Xero tokens and forgets them.
func (h *Handler) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Disconnect(r.Context(), userID); err != nil {
		h.logger.Error("disconnect failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to disconnect from Xero",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
