package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/account"
)

// SessionVerifier validates a session token.
type SessionVerifier interface {
	Verify(token string) (*account.Claims, error)
}

type sessionCtxKey struct{}

// Session returns middleware that requires a valid session token, taken from
// "Authorization: Bearer" or, failing that, the session cookie.
func Session(v SessionVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := SessionToken(r, cookieName)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			if token == "" {
				unauthorized(w, "authorization required")
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				unauthorized(w, domain.ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken extracts the raw session token from r. It returns "" when
// neither the header nor the cookie is present.
func SessionToken(r *http.Request, cookieName string) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			return "", errors.New("invalid authorization header")
		}
		return token, nil
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value, nil
	}
	return "", nil
}

// ClaimsFromContext returns the verified session claims, or nil.
func ClaimsFromContext(ctx context.Context) *account.Claims {
	c, _ := ctx.Value(sessionCtxKey{}).(*account.Claims)
	return c
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="ruedaya"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
