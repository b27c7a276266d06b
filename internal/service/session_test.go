package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/account"
)

func newTestSessions() *SessionService {
	return NewSessionService(config.Session{
		Secret:     "test-secret-key-must-be-long-enough",
		TTL:        time.Hour,
		CookieName: "ruedaya_session",
		Issuer:     "ruedaya-web",
	})
}

func TestSessionSignAndVerify(t *testing.T) {
	svc := newTestSessions()

	sess, err := svc.Sign(account.Claims{UserID: "u-42", Email: "ana@example.com", BackendToken: "backend-jwt"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if strings.Count(sess.Token, ".") != 2 {
		t.Fatalf("token is not a JWT: %q", sess.Token)
	}
	if sess.Claims.TokenID == "" {
		t.Error("expected token id")
	}

	claims, err := svc.Verify(sess.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u-42" || claims.BackendToken != "backend-jwt" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.Issuer != "ruedaya-web" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
	if got := time.Unix(claims.ExpiresAt, 0).UTC(); !got.Equal(sess.ExpiresAt) {
		t.Errorf("expiry mismatch: %v vs %v", got, sess.ExpiresAt)
	}
}

func TestSessionVerifyRejects(t *testing.T) {
	svc := newTestSessions()
	sess, err := svc.Sign(account.Claims{UserID: "u-42"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parts := strings.Split(sess.Token, ".")

	other := NewSessionService(config.Session{Secret: "another-secret-key-of-enough-size", TTL: time.Hour, Issuer: "ruedaya-web"})
	forged, _ := other.Sign(account.Claims{UserID: "u-42"})

	foreignIssuer := NewSessionService(config.Session{Secret: "test-secret-key-must-be-long-enough", TTL: time.Hour, Issuer: "someone-else"})
	wrongIss, _ := foreignIssuer.Sign(account.Claims{UserID: "u-42"})

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"two parts", parts[0] + "." + parts[1]},
		{"tampered payload", parts[0] + "." + base64URLEncode([]byte(`{"sub":"admin","exp":9999999999,"iss":"ruedaya-web"}`)) + "." + parts[2]},
		{"other secret", forged.Token},
		{"other issuer", wrongIss.Token},
		{"alg none", base64URLEncode([]byte(`{"alg":"none"}`)) + "." + parts[1] + "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSessionExpiry(t *testing.T) {
	svc := newTestSessions()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, err := svc.Sign(account.Claims{UserID: "u-42"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc.now = func() time.Time { return start.Add(59 * time.Minute) }
	if _, err := svc.Verify(sess.Token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	svc.now = func() time.Time { return start.Add(time.Hour) }
	if _, err := svc.Verify(sess.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
