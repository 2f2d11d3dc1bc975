// auth/session.go
package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "xeroreports-session"

var store *sessions.CookieStore

// InitSessionStore initializes the cookie session store
func InitSessionStore(secret []byte) {
	store = sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   true, // Require HTTPS
		SameSite: http.SameSiteLaxMode,
	}
}

// GetSession retrieves the session for a request
func GetSession(r *http.Request) *sessions.Session {
	session, _ := store.Get(r, sessionName)
	return session
}

// SessionUserID returns the user bound to the request's session, or ""
// when the session carries none.
func SessionUserID(r *http.Request) string {
	if store == nil {
		return ""
	}
	userID, _ := GetSession(r).Values["user_id"].(string)
	return userID
}
