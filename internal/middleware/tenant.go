package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/logger"
)

// Tenant annotation headers read by the renderer.
const (
	HeaderDealerSlug   = "X-Dealer-Slug"
	HeaderIsDealerSite = "X-Is-Dealer-Site"
)

// ResolutionRecorder counts tenant resolutions.
type ResolutionRecorder interface {
	RecordResolution(res tenant.Resolution)
}

type tenantCtxKey struct{}

// Tenant resolves the dealer storefront for every request. Bypassed paths
// pass through untouched. Other requests lose any client-sent annotation
// headers, get fresh ones, and dealer requests are rewritten under the
// dealer prefix before reaching next. rec may be nil.
func Tenant(res *tenant.Resolver, rec ResolutionRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolution := res.Resolve(tenant.FromHTTP(r))
			if rec != nil {
				rec.RecordResolution(resolution)
			}
			if resolution.Bypassed {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, resolution)
			if resolution.HasDealer() {
				ctx = logger.WithDealer(ctx, resolution.DealerSlug)
			}
			out := r.Clone(ctx)

			out.Header.Del(HeaderDealerSlug)
			out.Header.Set(HeaderIsDealerSite, strconv.FormatBool(resolution.HasDealer()))
			if resolution.HasDealer() {
				out.Header.Set(HeaderDealerSlug, resolution.DealerSlug)
				out.URL.Path = resolution.RewrittenPath
				out.URL.RawPath = resolution.RewrittenRawPath
				out.URL.RawQuery = resolution.RewrittenQuery
				out.RequestURI = resolution.Target()
			}

			slog.DebugContext(ctx, "tenant resolved",
				"rule", resolution.Rule,
				"host", r.Host,
				"path", r.URL.Path,
				"rewritten", resolution.Target(),
			)
			next.ServeHTTP(w, out)
		})
	}
}

// TenantFromContext returns the resolution stored by Tenant, or the
// main-domain resolution when the request was bypassed or never resolved.
func TenantFromContext(ctx context.Context) tenant.Resolution {
	if res, ok := ctx.Value(tenantCtxKey{}).(tenant.Resolution); ok {
		return res
	}
	return tenant.Main()
}
