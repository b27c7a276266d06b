// Package ristretto is the in-process dealer context cache, built on
// dgraph-io/ristretto.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// dealerDocBytes is the typical size of one cached dealer document.
const dealerDocBytes = 1024

// Cache holds encoded dealer documents keyed by cache key. Cost is the
// payload length, so the byte budget bounds memory rather than entry count.
type Cache struct {
	store *ristretto.Cache[string, []byte]
}

// New creates a cache bounded to budgetBytes of payload.
func New(budgetBytes int64) (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(10*budgetBytes/dealerDocBytes, 1000),
		MaxCost:     budgetBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	doc, ok := c.store.Get(key)
	return doc, ok, nil
}

// Set stores value for ttl and waits until it is readable. Admission may
// still drop it when the budget is exhausted.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.SetWithTTL(key, value, int64(len(value)), ttl)
	c.store.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Del(key)
	return nil
}

// Stats returns the lookup hit and miss counts since the cache was created.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.store.Metrics.Hits(), c.store.Metrics.Misses()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.store.Close()
}
