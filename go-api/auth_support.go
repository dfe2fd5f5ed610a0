package main

import (
	"net/http"
	"strings"
	"time"
)

func (a *api) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		HttpOnly: true,
		SameSite: a.cfg.sameSite(),
		Secure:   a.cfg.CookieSecure,
		Expires:  time.Now().Add(sessionTTL),
	})
}

func (a *api) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		HttpOnly: true,
		SameSite: a.cfg.sameSite(),
		Secure:   a.cfg.CookieSecure,
		MaxAge:   -1,
	})
}

// userIDFromRequest extracts the signed-in user id from the JWT cookie,
// falling back to the X-LC-User header for development.
func (a *api) userIDFromRequest(r *http.Request) string {
	if c, err := r.Cookie(a.cfg.CookieName); err == nil && c.Value != "" {
		if claims, err := parseToken([]byte(a.cfg.JWTSecret), c.Value); err == nil {
			return claims.UserID
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-LC-User")); v != "" {
		return v
	}
	return ""
}
