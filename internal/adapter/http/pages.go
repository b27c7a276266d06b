package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/middleware"
)

// NewRenderer returns the handler for page requests. With a target URL it
// proxies to the page renderer, forwarding the rewritten path and the tenant
// headers; with an empty target it serves a JSON description of the tenant
// context instead.
func NewRenderer(target string) (http.Handler, error) {
	if target == "" {
		return http.HandlerFunc(echoTenant), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse renderer url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("renderer url %q must be absolute", target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.ErrorContext(r.Context(), "renderer unavailable", "error", err)
			writeError(w, r, http.StatusBadGateway, "renderer unavailable")
		},
	}, nil
}

type pageEcho struct {
	Host    string            `json:"host"`
	Path    string            `json:"path"`
	Query   string            `json:"query,omitempty"`
	Tenant  tenant.Resolution `json:"tenant"`
	Headers map[string]string `json:"headers"`
}

func echoTenant(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pageEcho{
		Host:   r.Host,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Tenant: middleware.TenantFromContext(r.Context()),
		Headers: map[string]string{
			middleware.HeaderDealerSlug:   r.Header.Get(middleware.HeaderDealerSlug),
			middleware.HeaderIsDealerSite: r.Header.Get(middleware.HeaderIsDealerSite),
		},
	})
}
