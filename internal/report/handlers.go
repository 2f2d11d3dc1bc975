// report/handlers.go
package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ledgerline/xeroreports/internal/auth"
	"github.com/ledgerline/xeroreports/pkg/xeroclient"
)

// Handler provides HTTP handlers for report operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new report handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type generateRequest struct {
	TenantName  string `json:"tenant_name"`
	Period      string `json:"period"`
	AccountType string `json:"account_type"`
}

type detailsResponse struct {
	Report
	AccountBalances []AccountValue `json:"account_balances"`
}

// GenerateHandler creates a new report from live Xero data.
func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if req.TenantName == "" || req.Period == "" || req.AccountType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "tenant_name, period and account_type are required",
		})
		return
	}

	period, err := ParsePeriod(req.Period)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	created, err := h.service.GenerateReport(r.Context(), userID, req.TenantName, period, req.AccountType)
	if err != nil {
		h.writeGenerateError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, userID string, err error) {
	var reauth *auth.ReauthorizationError
	if errors.As(err, &reauth) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "Xero authorization expired, please reconnect",
			"authorization_url": reauth.AuthorizationURL,
		})
		return
	}

	switch {
	case errors.Is(err, ErrTenantNotFound):
		h.logger.Warn("report generation rejected: tenant not found", zap.String("user_id", userID))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No Xero tenant found with that name"})
	case errors.Is(err, auth.ErrNoToken):
		h.logger.Warn("report generation rejected: not connected", zap.String("user_id", userID))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Xero account not connected"})
	case errors.Is(err, ErrGenerationFailed):
		h.logger.Error("report generation failed", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error generating report after token refresh"})
	default:
		var upstream *xeroclient.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.Error("report generation failed upstream", zap.String("user_id", userID), zap.Error(err))
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error generating report"})
			return
		}
		h.logger.Error("unexpected error in report generation", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An unexpected error occurred"})
	}
}

// ListHandler returns the current user's reports, newest first.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reports, err := h.service.ListReports(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list reports", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list reports"})
		return
	}
	if reports == nil {
		reports = []Report{}
	}

	writeJSON(w, http.StatusOK, reports)
}

// GetHandler returns a single report owned by the current user.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.reportRequest(w, r)
	if !ok {
		return
	}

	rep, err := h.service.GetReport(r.Context(), userID, id)
	if err != nil {
		h.writeLookupError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// DetailsHandler returns a report with its nested account balances.
func (h *Handler) DetailsHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.reportRequest(w, r)
	if !ok {
		return
	}

	rep, values, err := h.service.GetReportDetails(r.Context(), userID, id)
	if err != nil {
		h.writeLookupError(w, userID, err)
		return
	}
	if values == nil {
		values = []AccountValue{}
	}

	writeJSON(w, http.StatusOK, detailsResponse{Report: *rep, AccountBalances: values})
}

func (h *Handler) reportRequest(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid report id"})
		return "", uuid.Nil, false
	}

	return userID, id, true
}

func (h *Handler) writeLookupError(w http.ResponseWriter, userID string, err error) {
	if errors.Is(err, ErrReportNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Report not found"})
		return
	}
	h.logger.Error("failed to load report", zap.String("user_id", userID), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load report"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
