package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ruedaya/storefront/internal/logger"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{name: "absent", inbound: "", keep: false},
		{name: "upstream id kept", inbound: "lb-7f3a-0042", keep: true},
		{name: "oversized", inbound: strings.Repeat("a", 500), keep: false},
		{name: "embedded newline", inbound: "abc\nlevel=ERROR", keep: false},
		{name: "space", inbound: "two words", keep: false},
		{name: "non ascii", inbound: "pedido-ñ", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inCtx string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				inCtx = logger.RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/vehiculos", http.NoBody)
			if tt.inbound != "" {
				req.Header.Set(HeaderRequestID, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			echoed := rec.Header().Get(HeaderRequestID)
			if echoed != inCtx {
				t.Fatalf("response id %q differs from context id %q", echoed, inCtx)
			}
			if tt.keep {
				if echoed != tt.inbound {
					t.Fatalf("expected inbound id kept, got %q", echoed)
				}
				return
			}
			if _, err := uuid.Parse(echoed); err != nil {
				t.Fatalf("expected a generated UUID, got %q", echoed)
			}
		})
	}
}
