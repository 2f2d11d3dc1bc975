// routes/auth.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/ledgerline/xeroreports/internal/auth"
)

// RegisterAuthRoutes registers the Xero connection routes
func RegisterAuthRoutes(router *mux.Router, authHandler *auth.Handler) {
	// The callback is public: the state parameter binds it to the user
	// who started the flow.
	router.HandleFunc("/auth/callback", authHandler.CallbackHandler).Methods("GET")

	protectedRouter := router.PathPrefix("/auth").Subrouter()
	protectedRouter.Use(auth.UserMiddleware)
	protectedRouter.HandleFunc("/connect", authHandler.ConnectHandler).Methods("GET")
	protectedRouter.HandleFunc("/status", authHandler.StatusHandler).Methods("GET")
	protectedRouter.HandleFunc("/disconnect", authHandler.DisconnectHandler).Methods("POST")
}
