package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/logger"
	"github.com/ruedaya/storefront/internal/middleware"
)

type seen struct {
	path, query, requestURI string
	slugHeader, siteHeader  string
	res                     tenant.Resolution
	dealerLog               string
}

func capture(dst *seen) http.Handler {
	return http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		*dst = seen{
			path:       r.URL.Path,
			query:      r.URL.RawQuery,
			requestURI: r.RequestURI,
			slugHeader: r.Header.Get(middleware.HeaderDealerSlug),
			siteHeader: r.Header.Get(middleware.HeaderIsDealerSite),
			res:        middleware.TenantFromContext(r.Context()),
			dealerLog:  logger.Dealer(r.Context()),
		}
	})
}

type recorder struct{ got []tenant.Resolution }

func (r *recorder) RecordResolution(res tenant.Resolution) { r.got = append(r.got, res) }

func newResolver() *tenant.Resolver {
	return tenant.NewResolver(config.Defaults().Tenancy)
}

func TestTenantRewritesDealerSubdomain(t *testing.T) {
	var got seen
	h := middleware.Tenant(newResolver(), nil)(capture(&got))

	req := httptest.NewRequest(http.MethodGet, "http://chevrolet-loja.ruedaya.com/vehiculos?page=2", http.NoBody)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.path != "/dealer/vehiculos" || got.query != "page=2" {
		t.Errorf("rewrite = %q ? %q", got.path, got.query)
	}
	if got.requestURI != "/dealer/vehiculos?page=2" {
		t.Errorf("request uri = %q", got.requestURI)
	}
	if got.slugHeader != "chevrolet-loja" || got.siteHeader != "true" {
		t.Errorf("headers = %q / %q", got.slugHeader, got.siteHeader)
	}
	if got.res.DealerSlug != "chevrolet-loja" || got.res.Rule != tenant.RuleProductionSubdomain {
		t.Errorf("context resolution = %+v", got.res)
	}
	if got.dealerLog != "chevrolet-loja" {
		t.Errorf("log context dealer = %q", got.dealerLog)
	}
	if req.URL.Path != "/vehiculos" {
		t.Errorf("inbound request was mutated: %q", req.URL.Path)
	}
}

func TestTenantRewriteKeepsEncodedPath(t *testing.T) {
	var got seen
	var escaped string
	h := middleware.Tenant(newResolver(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		escaped = r.URL.EscapedPath()
		capture(&got).ServeHTTP(w, r)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://ford-loja.ruedaya.com/marcas/a%2Fb?q=1", http.NoBody)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.path != "/dealer/marcas/a/b" {
		t.Errorf("path = %q", got.path)
	}
	if escaped != "/dealer/marcas/a%2Fb" {
		t.Errorf("escaped path = %q, want /dealer/marcas/a%%2Fb", escaped)
	}
	if got.requestURI != "/dealer/marcas/a%2Fb?q=1" {
		t.Errorf("request uri = %q", got.requestURI)
	}
}

func TestTenantMalformedDealerQueryIsMain(t *testing.T) {
	var got seen
	h := middleware.Tenant(newResolver(), nil)(capture(&got))

	req := httptest.NewRequest(http.MethodGet, "http://ford-loja.ruedaya.com/autos?dealer=%zz", http.NoBody)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.path != "/autos" || got.slugHeader != "" || got.siteHeader != "false" {
		t.Errorf("got %+v, want main domain without rewrite", got)
	}
	if got.res.Rule != tenant.RuleDealerQuery {
		t.Errorf("rule = %q, want %q", got.res.Rule, tenant.RuleDealerQuery)
	}
}

func TestTenantDealerQueryStripsParam(t *testing.T) {
	var got seen
	h := middleware.Tenant(newResolver(), nil)(capture(&got))

	req := httptest.NewRequest(http.MethodGet, "http://ruedaya.com/?sort=price&dealer=kia-loja&page=2", http.NoBody)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.path != "/dealer/" {
		t.Errorf("path = %q, want /dealer/", got.path)
	}
	if got.query != "sort=price&page=2" {
		t.Errorf("query = %q, want sort=price&page=2", got.query)
	}
	if got.slugHeader != "kia-loja" {
		t.Errorf("slug header = %q", got.slugHeader)
	}
}

func TestTenantMainDomainDropsSpoofedHeaders(t *testing.T) {
	var got seen
	h := middleware.Tenant(newResolver(), nil)(capture(&got))

	req := httptest.NewRequest(http.MethodGet, "http://www.ruedaya.com/carros?dealer=evil-loja", http.NoBody)
	req.Header.Set(middleware.HeaderDealerSlug, "evil-loja")
	req.Header.Set(middleware.HeaderIsDealerSite, "true")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.path != "/carros" || got.query != "dealer=evil-loja" {
		t.Errorf("main domain must not be rewritten: %q ? %q", got.path, got.query)
	}
	if got.slugHeader != "" {
		t.Errorf("spoofed slug header survived: %q", got.slugHeader)
	}
	if got.siteHeader != "false" {
		t.Errorf("site header = %q, want false", got.siteHeader)
	}
	if !got.res.IsMainDomain || got.dealerLog != "" {
		t.Errorf("expected main resolution, got %+v", got.res)
	}
}

func TestTenantBypassUntouched(t *testing.T) {
	var got seen
	rec := &recorder{}
	h := middleware.Tenant(newResolver(), rec)(capture(&got))

	req := httptest.NewRequest(http.MethodGet, "http://kia-loja.ruedaya.com/_next/static/app.js", http.NoBody)
	req.Header.Set(middleware.HeaderDealerSlug, "from-client")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.path != "/_next/static/app.js" {
		t.Errorf("bypassed path rewritten to %q", got.path)
	}
	if got.slugHeader != "from-client" || got.siteHeader != "" {
		t.Errorf("bypassed request headers changed: %q / %q", got.slugHeader, got.siteHeader)
	}
	if !got.res.IsMainDomain || got.res.Bypassed {
		t.Errorf("bypassed request should carry no resolution, got %+v", got.res)
	}
	if len(rec.got) != 1 || !rec.got[0].Bypassed {
		t.Errorf("expected bypass to be recorded, got %+v", rec.got)
	}
}

func TestTenantRoutesThroughChi(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middleware.Tenant(newResolver(), nil))
	r.Get("/dealer/*", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("dealer:" + middleware.TenantFromContext(req.Context()).DealerSlug))
	})
	r.Get("/*", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("main"))
	})

	tests := []struct {
		host string
		want string
	}{
		{"toyota-loja.ruedaya.com", "dealer:toyota-loja"},
		{"ruedaya.com", "main"},
		{"ford-loja.local:3000", "dealer:ford-loja"},
		{"localhost:3000", "main"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/vehiculos", http.NoBody)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Body.String() != tt.want {
				t.Errorf("got %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestTenantFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	got := middleware.TenantFromContext(req.Context())
	if !got.IsMainDomain || got.DealerSlug != "" {
		t.Fatalf("expected main domain, got %+v", got)
	}
}
