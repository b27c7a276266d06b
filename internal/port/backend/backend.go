// Package backend defines the ports for the marketplace backend collaborator.
package backend

import (
	"context"

	"github.com/ruedaya/storefront/internal/domain/account"
	"github.com/ruedaya/storefront/internal/domain/tenant"
)

// AccountSyncer pushes a freshly signed-in OAuth identity to the backend.
// Implementations bound the call in time and report every failure as an
// error wrapping domain.ErrBackendUnavailable.
type AccountSyncer interface {
	SyncAccount(ctx context.Context, p account.Profile) (*account.SyncResult, error)
}

// DealerDirectory looks up dealer storefront configuration by slug.
// Unknown slugs return domain.ErrNotFound.
type DealerDirectory interface {
	GetDealer(ctx context.Context, slug string) (*tenant.Dealer, error)
}
