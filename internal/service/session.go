package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/account"
)

// SessionService signs and verifies shopper session tokens (HS256 JWT).
type SessionService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSessionService creates a session signer from cfg.
func NewSessionService(cfg config.Session) *SessionService {
	return &SessionService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// jwtHeader is the fixed base64url-encoded header for HS256.
var jwtHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

// Sign stamps id, issuer and validity window onto claims and returns the signed session.
func (s *SessionService) Sign(claims account.Claims) (*account.Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims.TokenID = uuid.NewString()
	claims.Issuer = s.issuer
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = exp.Unix()

	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := jwtHeader + "." + base64URLEncode(payload)
	return &account.Session{
		Token:     signingInput + "." + s.signature(signingInput),
		Claims:    claims,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}

// Verify checks the signature, issuer and expiry of token.
// Every failure wraps domain.ErrInvalidToken.
func (s *SessionService) Verify(token string) (*account.Claims, error) {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed token", domain.ErrInvalidToken)
	}
	if parts[0] != jwtHeader {
		return nil, fmt.Errorf("%w: unsupported header", domain.ErrInvalidToken)
	}

	expected := s.signature(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return nil, fmt.Errorf("%w: invalid signature", domain.ErrInvalidToken)
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", domain.ErrInvalidToken, err)
	}

	var claims account.Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: unmarshal claims: %w", domain.ErrInvalidToken, err)
	}

	if s.now().Unix() >= claims.ExpiresAt {
		return nil, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
	}
	if claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: invalid issuer", domain.ErrInvalidToken)
	}
	return &claims, nil
}

// TTL returns how long signed sessions stay valid.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionService) signature(signingInput string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	return base64URLEncode(mac.Sum(nil))
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
