// Package service holds the storefront edge's application services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ruedaya/storefront/internal/adapter/otel"
	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/account"
	"github.com/ruedaya/storefront/internal/port/backend"
)

// Account sync results reported to a SyncRecorder.
const (
	SyncOK       = "ok"
	SyncSoftFail = "soft_fail"
	SyncSkipped  = "skipped"
)

// SyncRecorder counts account sync outcomes.
type SyncRecorder interface {
	RecordSync(result string)
}

// AuthService completes OAuth sign-ins: it enriches the provider identity
// through the backend and issues the shopper's session token.
type AuthService struct {
	syncer   backend.AccountSyncer
	sessions *SessionService
	validate *validator.Validate
	recorder SyncRecorder
}

// NewAuthService creates an AuthService. A nil syncer disables backend sync.
func NewAuthService(syncer backend.AccountSyncer, sessions *SessionService) *AuthService {
	return &AuthService{
		syncer:   syncer,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetRecorder attaches a recorder for sync outcomes.
func (s *AuthService) SetRecorder(r SyncRecorder) {
	s.recorder = r
}

// CompleteOAuthLogin turns a provider profile into a signed session.
// Sync failures never block sign-in: the session is issued from the provider
// identity alone. Only an invalid profile or a signing failure is returned.
func (s *AuthService) CompleteOAuthLogin(ctx context.Context, p account.Profile) (*account.Session, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, describeValidation(err))
	}

	claims := account.Claims{
		UserID:     p.FallbackUserID(),
		Name:       p.Name,
		Email:      p.Email,
		Avatar:     p.Avatar,
		Provider:   p.Provider,
		ProviderID: p.ProviderID,
	}

	if res := s.sync(ctx, p); res != nil {
		if res.UserID != "" {
			claims.UserID = res.UserID
		}
		claims.Phone = res.Phone
		claims.Location = res.Location
		claims.BackendToken = res.BackendToken
		claims.Synced = true
	}

	sess, err := s.sessions.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return sess, nil
}

// sync returns nil whenever the backend could not enrich the profile.
func (s *AuthService) sync(ctx context.Context, p account.Profile) *account.SyncResult {
	if s.syncer == nil {
		s.record(SyncSkipped)
		return nil
	}

	ctx, span := otel.StartSyncSpan(ctx, p.Provider)
	res, err := s.syncer.SyncAccount(ctx, p)
	otel.EndSpan(span, err)
	if err != nil {
		slog.WarnContext(ctx, "account sync failed, continuing without enrichment",
			"provider", p.Provider, "error", err)
		s.record(SyncSoftFail)
		return nil
	}

	s.record(SyncOK)
	return res
}

func (s *AuthService) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordSync(result)
	}
}

// describeValidation lists the failing profile fields.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return strings.Join(fields, ", ")
}
