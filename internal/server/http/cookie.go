package httpserver

import (
	"net/http"
	"time"
)

// RefreshCookie is the name of the cookie holding the refresh token.
const RefreshCookie = "jwt"

func refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// setRefreshCookie hands the refresh token to the browser for ttl.
func setRefreshCookie(w http.ResponseWriter, tok string, ttl time.Duration) {
	http.SetCookie(w, refreshCookie(tok, int(ttl/time.Second)))
}

// clearRefreshCookie expires the cookie with the same attributes it was set with.
func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, refreshCookie("", -1))
}

// refreshFromRequest returns the cookie value, or "" when absent.
func refreshFromRequest(r *http.Request) string {
	c, err := r.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
