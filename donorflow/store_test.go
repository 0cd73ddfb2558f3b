package donorflow

import (
	"context"
	"testing"
)

func TestMemoryReferenceStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReferenceStore()

	if ref, _ := store.Get(ctx); ref != "" {
		t.Fatalf("new store must be empty, got %q", ref)
	}

	if err := store.Set(ctx, "DON-123"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ref, _ := store.Get(ctx); ref != "DON-123" {
		t.Errorf("expected DON-123, got %q", ref)
	}

	// Last write wins; there is only ever one in-flight reference.
	store.Set(ctx, "DON-456")
	if ref, _ := store.Get(ctx); ref != "DON-456" {
		t.Errorf("expected DON-456, got %q", ref)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if ref, _ := store.Get(ctx); ref != "" {
		t.Errorf("expected empty after Clear, got %q", ref)
	}
}
