package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ruedaya/storefront/internal/adapter/otel"
	"github.com/ruedaya/storefront/internal/domain"
	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/port/backend"
	"github.com/ruedaya/storefront/internal/port/cache"
)

// Dealer lookup results reported to a LookupRecorder.
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// LookupRecorder counts dealer lookup outcomes.
type LookupRecorder interface {
	RecordDealerLookup(result string)
}

// unknownDealer is cached for slugs the backend does not know.
var unknownDealer = []byte("null")

// DealerService resolves the storefront configuration of the current tenant.
type DealerService struct {
	dir      backend.DealerDirectory
	cache    cache.Cache
	ttl      time.Duration
	group    singleflight.Group
	recorder LookupRecorder
}

// NewDealerService creates a DealerService caching lookups for ttl.
func NewDealerService(dir backend.DealerDirectory, c cache.Cache, ttl time.Duration) *DealerService {
	return &DealerService{dir: dir, cache: c, ttl: ttl}
}

// SetRecorder attaches a recorder for lookup outcomes.
func (s *DealerService) SetRecorder(r LookupRecorder) {
	s.recorder = r
}

// ForRequest returns the dealer behind res, or nil on the main marketplace.
// Unknown slugs return domain.ErrNotFound; backend failures are returned as is
// and are not cached.
func (s *DealerService) ForRequest(ctx context.Context, res tenant.Resolution) (*tenant.Dealer, error) {
	if !res.HasDealer() {
		return nil, nil
	}
	return s.Get(ctx, res.DealerSlug)
}

// Get looks up slug through the cache. Concurrent misses for the same slug
// share one backend call.
func (s *DealerService) Get(ctx context.Context, slug string) (*tenant.Dealer, error) {
	key := "dealer:" + slug

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "dealer cache get failed", "slug", slug, "error", err)
	} else if ok {
		d, err := decodeDealer(data)
		if err == nil {
			s.record(LookupHit)
			if d == nil {
				return nil, fmt.Errorf("dealer %s: %w", slug, domain.ErrNotFound)
			}
			return d, nil
		}
		slog.WarnContext(ctx, "dropping undecodable dealer cache entry", "slug", slug, "error", err)
		_ = s.cache.Delete(ctx, key)
	}

	v, err, _ := s.group.Do(slug, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), key, slug)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.record(LookupNotFound)
		} else {
			s.record(LookupError)
		}
		return nil, err
	}

	s.record(LookupMiss)
	d := *v.(*tenant.Dealer)
	return &d, nil
}

// fetch loads slug from the backend and populates the cache, including a
// tombstone for unknown slugs.
func (s *DealerService) fetch(ctx context.Context, key, slug string) (*tenant.Dealer, error) {
	ctx, span := otel.StartDealerLookupSpan(ctx, slug)
	d, err := s.dir.GetDealer(ctx, slug)
	otel.EndSpan(span, err)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.store(ctx, key, unknownDealer)
		return nil, err
	case err != nil:
		return nil, err
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal dealer %s: %w", slug, err)
	}
	s.store(ctx, key, data)
	return d, nil
}

func (s *DealerService) store(ctx context.Context, key string, data []byte) {
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		slog.WarnContext(ctx, "dealer cache set failed", "key", key, "error", err)
	}
}

func (s *DealerService) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordDealerLookup(result)
	}
}

func decodeDealer(data []byte) (*tenant.Dealer, error) {
	var d *tenant.Dealer
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return d, nil
}
