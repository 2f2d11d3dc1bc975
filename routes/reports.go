// routes/reports.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/ledgerline/xeroreports/internal/auth"
	"github.com/ledgerline/xeroreports/internal/report"
)

// RegisterReportRoutes registers the report routes
func RegisterReportRoutes(router *mux.Router, reportHandler *report.Handler) {
	reportRouter := router.PathPrefix("/reports").Subrouter()
	reportRouter.Use(auth.UserMiddleware)
	reportRouter.HandleFunc("", reportHandler.ListHandler).Methods("GET")
	reportRouter.HandleFunc("/generate", reportHandler.GenerateHandler).Methods("POST")
	reportRouter.HandleFunc("/{id}", reportHandler.GetHandler).Methods("GET")
	reportRouter.HandleFunc("/{id}/details", reportHandler.DetailsHandler).Methods("GET")
}
