// auth/middleware.go
package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys
type contextKey string

// UserIDKey carries the acting user's identity through the request context.
const UserIDKey contextKey = "user_id"

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a context carrying the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserMiddleware resolves the acting user from the session cookie, with
// an X-User-ID header fallback for service-to-service callers, and puts
// it in the request context. Requests without a resolvable user are
// rejected.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := SessionUserID(r)
		if userID == "" {
			userID = r.Header.Get("X-User-ID")
		}
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
