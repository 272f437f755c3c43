package authapi

import (
	"net/http"
	"strings"

	"ozran/cmd/internal/auth/cookie"
)

// cookieAttributes computes the session cookie policy for r.
func (h *Handler) cookieAttributes(r *http.Request) (cookie.Attributes, error) {
	return cookie.Policy(cookie.Input{
		Production: h.cfg.Production,
		HTTPS:      h.cfg.ForceHTTPS || cookie.RequestIsHTTPS(r, h.cfg.TrustProxy),
		CrossSite:  h.cfg.CrossSite,
		MaxAge:     h.svc.TokenTTL(),
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) error {
	attrs, err := h.cookieAttributes(r)
	if err != nil {
		return err
	}
	http.SetCookie(w, attrs.Cookie(h.cfg.CookieName, token))
	return nil
}

// clearSessionCookie expires the session cookie with the attributes it was issued with.
func (h *Handler) clearSessionCookie(w http.ResponseWriter, r *http.Request) error {
	attrs, err := h.cookieAttributes(r)
	if err != nil {
		return err
	}
	http.SetCookie(w, attrs.Expired(h.cfg.CookieName))
	return nil
}

func (h *Handler) sessionTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(h.cfg.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
