// routes/routes.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/ledgerline/xeroreports/internal/auth"
	"github.com/ledgerline/xeroreports/internal/report"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	router *mux.Router,
	authHandler *auth.Handler,
	reportHandler *report.Handler,
) {
	RegisterAuthRoutes(router, authHandler)
	RegisterReportRoutes(router, reportHandler)
}
