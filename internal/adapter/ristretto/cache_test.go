package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/ruedaya/storefront/internal/adapter/ristretto"
	"github.com/ruedaya/storefront/internal/port/cache"
)

var _ cache.Cache = (*ristretto.Cache)(nil)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestDealerDocumentLifecycle(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	doc := []byte(`{"slug":"kia-loja","name":"Kia Loja"}`)

	if _, ok, _ := c.Get(ctx, "dealer:kia-loja"); ok {
		t.Fatal("empty cache reported a hit")
	}
	if err := c.Set(ctx, "dealer:kia-loja", doc, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := c.Get(ctx, "dealer:kia-loja")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if string(got) != string(doc) {
		t.Fatalf("Get = %s, want %s", got, doc)
	}

	if err := c.Delete(ctx, "dealer:kia-loja"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "dealer:kia-loja"); ok {
		t.Fatal("entry still present after Delete")
	}
}

func TestEntriesExpire(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "dealer:mazda-loja", []byte("null"), 50*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "dealer:mazda-loja"); ok {
		t.Fatal("expected tombstone to expire")
	}
}

func TestStatsCountLookups(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "dealer:ford-loja", []byte("{}"), time.Minute)
	_, _, _ = c.Get(ctx, "dealer:ford-loja")
	_, _, _ = c.Get(ctx, "dealer:ford-loja")
	_, _, _ = c.Get(ctx, "dealer:honda-loja")

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("Stats = (%d, %d), want (2, 1)", hits, misses)
	}
}
