// Package auth implements cookie-session authentication for admins and
// scoped end users.
package auth

import (
	"crypto/sha256"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// Store is the global cookie session store.
var Store *sessions.CookieStore

// SessionName is the name of the session cookie. One cookie carries either an
// admin or a user principal; logging in as one clears the other.
const SessionName = "leadvault-session"

// Session value keys.
const (
	sessionKeyAdminID = "admin_id"
	sessionKeyUserID  = "user_id"
)

// InitSessionStore initializes the cookie-based session store.
//
// The secret parameter signs session cookies. It can be any passphrase - it
// will be SHA-256 hashed to derive a 32-byte key. It must be consistent
// across server restarts and replicas.
func InitSessionStore(secret string, maxAgeSeconds int, secure bool) {
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetAdminSession writes an admin principal into the session cookie,
// replacing any user principal.
func SetAdminSession(w http.ResponseWriter, r *http.Request, adminID uuid.UUID) error {
	session, _ := Store.Get(r, SessionName)
	delete(session.Values, sessionKeyUserID)
	session.Values[sessionKeyAdminID] = adminID.String()
	return session.Save(r, w)
}

// SetUserSession writes a user principal into the session cookie, replacing
// any admin principal.
func SetUserSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	session, _ := Store.Get(r, SessionName)
	delete(session.Values, sessionKeyAdminID)
	session.Values[sessionKeyUserID] = userID.String()
	return session.Save(r, w)
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := Store.Get(r, SessionName)
	session.Options.MaxAge = -1
	session.Values = map[any]any{}
	return session.Save(r, w)
}

// AdminID returns the admin principal from the request's session, if any.
func AdminID(r *http.Request) (uuid.UUID, bool) {
	return sessionUUID(r, sessionKeyAdminID)
}

// UserID returns the user principal from the request's session, if any.
func UserID(r *http.Request) (uuid.UUID, bool) {
	return sessionUUID(r, sessionKeyUserID)
}

func sessionUUID(r *http.Request, key string) (uuid.UUID, bool) {
	session, err := Store.Get(r, SessionName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := session.Values[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
