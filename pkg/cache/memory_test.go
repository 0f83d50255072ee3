package cache_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/goliatone/go-customizer/pkg/cache"
	"github.com/goliatone/go-customizer/pkg/pipeline"
)

var _ pipeline.MeshCache = (*cache.Memory)(nil)
var _ pipeline.MeshCache = (*cache.Redis)(nil)

func TestMemoryGetAfterSet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(0)

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want miss", ok, err)
	}

	mesh := []byte("solid cube")
	if err := c.Set(ctx, "cube", mesh); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "cube")
	if err != nil || !ok {
		t.Fatalf("Get(cube) = ok=%v err=%v, want hit", ok, err)
	}
	if !bytes.Equal(got, mesh) {
		t.Fatalf("Get(cube) = %q, want %q", got, mesh)
	}
}

func TestMemoryCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(0)

	mesh := []byte("original")
	if err := c.Set(ctx, "k", mesh); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	mesh[0] = 'X'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "original" {
		t.Fatalf("cached mesh mutated by caller: %q", got)
	}
	got[0] = 'Y'

	again, _, _ := c.Get(ctx, "k")
	if string(again) != "original" {
		t.Fatalf("cached mesh mutated via returned slice: %q", again)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(20)

	c.Set(ctx, "a", bytes.Repeat([]byte{'a'}, 8))
	c.Set(ctx, "b", bytes.Repeat([]byte{'b'}, 8))

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatal("Get(a) missed before eviction")
	}

	c.Set(ctx, "c", bytes.Repeat([]byte{'c'}, 8))

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatal("recently used entry was evicted")
	}
	if _, ok, _ := c.Get(ctx, "c"); !ok {
		t.Fatal("newest entry was evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestMemoryReplaceAdjustsBudget(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(16)

	c.Set(ctx, "k", bytes.Repeat([]byte{'x'}, 12))
	c.Set(ctx, "k", []byte("tiny"))
	c.Set(ctx, "other", bytes.Repeat([]byte{'y'}, 12))

	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("shrunk entry was evicted despite fitting the budget")
	}
	if _, ok, _ := c.Get(ctx, "other"); !ok {
		t.Fatal("second entry was evicted despite fitting the budget")
	}
}
