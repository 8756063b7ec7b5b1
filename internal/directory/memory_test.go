package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreLookup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Register(ctx, DemoProfile("")); err != nil {
		t.Fatalf("register demo: %v", err)
	}

	got, err := store.Lookup(ctx, "demo-phone-id")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != "demo-001" || got.DisplayName != "Restaurante Demo" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := store.Lookup(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Register(ctx, DemoProfile("chan-1"))

	first, _ := store.Lookup(ctx, "chan-1")
	first.DisplayName = "mutated"

	second, _ := store.Lookup(ctx, "chan-1")
	if second.DisplayName != "Restaurante Demo" {
		t.Fatalf("expected stored profile to be unaffected, got %q", second.DisplayName)
	}
}

func TestMemoryStoreRegisterRules(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Register(ctx, &BusinessProfile{ID: "x"}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if err := store.Register(ctx, nil); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile for nil, got %v", err)
	}

	if err := store.Register(ctx, &BusinessProfile{ID: "a", ChannelID: "chan"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.Register(ctx, &BusinessProfile{ID: "b", ChannelID: "chan"}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	got, _ := store.Lookup(ctx, "chan")
	if got.ID != "a" {
		t.Fatalf("expected first registration to win, got %s", got.ID)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Register(ctx, &BusinessProfile{ID: fmt.Sprintf("b-%d", i), ChannelID: fmt.Sprintf("c-%d", i)})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Lookup(ctx, fmt.Sprintf("c-%d", i))
		}(i)
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Fatalf("expected 20 profiles, got %d", store.Len())
	}
}
