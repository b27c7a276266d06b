package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/account"
	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/middleware"
	"github.com/ruedaya/storefront/internal/resilience"
	"github.com/ruedaya/storefront/internal/service"
)

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	Auth     *service.AuthService
	Sessions *service.SessionService
	Dealers  *service.DealerService
	Resolver *tenant.Resolver
	Breaker  *resilience.Breaker // nil when the backend is not configured
	Renderer http.Handler
	Metrics  http.Handler

	CookieName    string
	SecureCookies bool
	Version       string
}

type healthResponse struct {
	Status  string   `json:"status"`
	Version string   `json:"version,omitempty"`
	Backend string   `json:"backend"`
	Rules   []string `json:"tenant_rules"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	backend := "disabled"
	if h.Breaker != nil {
		backend = h.Breaker.State().String()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: h.Version,
		Backend: backend,
		Rules:   h.Resolver.Rules(),
	})
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Session   account.View `json:"session"`
}

// OAuthLogin handles POST /api/auth/oauth. The body is the profile reported
// by the identity provider; the response carries the signed session, which
// is also set as a cookie.
func (h *Handlers) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	profile, ok := readJSON[account.Profile](w, r)
	if !ok {
		return
	}

	sess, err := h.Auth.CompleteOAuthLogin(r.Context(), profile)
	if err != nil {
		writeDomainError(w, r, err, "profile not found")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Session:   sess.Claims.View(),
	})
}

// CurrentSession handles GET /api/auth/session behind the Session middleware.
func (h *Handlers) CurrentSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, http.StatusUnauthorized, "authorization required")
		return
	}
	writeJSON(w, http.StatusOK, claims.View())
}

// Logout handles POST /api/auth/logout by expiring the session cookie.
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type dealerResponse struct {
	IsMainDomain bool           `json:"is_main_domain"`
	DealerSlug   string         `json:"dealer_slug,omitempty"`
	Dealer       *tenant.Dealer `json:"dealer"`
	Degraded     bool           `json:"degraded,omitempty"`
}

// CurrentDealer handles GET /api/dealer. API paths are never tenant-resolved,
// so the tenant is resolved here from the host and query as if for "/".
// A dealer the backend cannot describe is answered with its slug only.
func (h *Handlers) CurrentDealer(w http.ResponseWriter, r *http.Request) {
	res := h.Resolver.Resolve(tenant.Request{
		Hostname: r.Host,
		Path:     "/",
		RawQuery: r.URL.RawQuery,
	})
	if !res.HasDealer() {
		writeJSON(w, http.StatusOK, dealerResponse{IsMainDomain: true})
		return
	}

	resp := dealerResponse{DealerSlug: res.DealerSlug}
	d, err := h.Dealers.ForRequest(r.Context(), res)
	switch {
	case err == nil:
		resp.Dealer = d
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrBackendUnavailable):
		slog.WarnContext(r.Context(), "serving slug-only dealer context", "dealer", res.DealerSlug, "error", err)
		resp.Dealer = &tenant.Dealer{Slug: res.DealerSlug}
		resp.Degraded = true
	default:
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
