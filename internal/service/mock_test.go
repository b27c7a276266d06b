package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ruedaya/storefront/internal/domain/account"
	"github.com/ruedaya/storefront/internal/domain/tenant"
)

type fakeSyncer struct {
	result *account.SyncResult
	err    error
	calls  atomic.Int32
}

func (f *fakeSyncer) SyncAccount(_ context.Context, _ account.Profile) (*account.SyncResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

type fakeDirectory struct {
	dealers map[string]tenant.Dealer
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeDirectory) GetDealer(_ context.Context, slug string) (*tenant.Dealer, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.dealers[slug]
	if !ok {
		return nil, errNotFoundFor(slug)
	}
	return &d, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[string]int)}
}

func (r *countingRecorder) RecordSync(result string) { r.add(result) }

func (r *countingRecorder) RecordDealerLookup(result string) { r.add(result) }

func (r *countingRecorder) add(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[result]++
}

func (r *countingRecorder) get(result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[result]
}
