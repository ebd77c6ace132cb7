package cart

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"diamond-storefront/internal/domain"
)

func TestMemory_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour)

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(created.ID, "cart_") {
		t.Fatalf("unexpected cart ID %q", created.ID)
	}
	if len(created.Items) != 0 {
		t.Fatalf("new cart should be empty, got %d items", len(created.Items))
	}
	if created.CreatedAt == 0 || created.UpdatedAt == 0 {
		t.Fatalf("timestamps not set: %+v", created)
	}

	fetched, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("fetched mismatch: got %q want %q", fetched.ID, created.ID)
	}
}

func TestMemory_CreateWithExplicitID(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour)

	created, err := store.Create(ctx, "cart_123_abc")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "cart_123_abc" {
		t.Fatalf("got ID %q, want cart_123_abc", created.ID)
	}
}

func TestMemory_GetUnknownID(t *testing.T) {
	store := NewMemory(time.Hour)

	_, err := store.Get(context.Background(), "cart_0_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemory_SaveAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour)

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Items = append(created.Items, domain.CartItem{
		ID:       "line_1",
		Source:   domain.SourceShopify,
		Title:    "Gold Band",
		Quantity: 2,
		Price:    domain.Money{Amount: "120.00", CurrencyCode: "USD"},
	})
	saved, err := store.Save(ctx, created)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(saved.Items) != 1 || saved.Items[0].ID != "line_1" {
		t.Fatalf("unexpected saved items %+v", saved.Items)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v after delete, want ErrNotFound", err)
	}
	// Deleting again must stay a no-op.
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour).(*memoryStore)

	base := time.Now()
	store.now = func() time.Time { return base }

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.now = func() time.Time { return base.Add(59 * time.Minute) }
	if _, err := store.Get(ctx, created.ID); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	store.now = func() time.Time { return base.Add(61 * time.Minute) }
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v after TTL, want ErrNotFound", err)
	}
}

func TestMemory_SaveExtendsTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour).(*memoryStore)

	base := time.Now()
	store.now = func() time.Time { return base }

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.now = func() time.Time { return base.Add(50 * time.Minute) }
	if _, err := store.Save(ctx, created); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store.now = func() time.Time { return base.Add(90 * time.Minute) }
	if _, err := store.Get(ctx, created.ID); err != nil {
		t.Fatalf("Get after save-refreshed TTL: %v", err)
	}
}

func TestMemory_ReturnedRecordIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour)

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := AddItem(ctx, store, created, domain.CartItem{
		ID:      "line_1",
		Title:   "Pendant",
		Payload: map[string]any{"carat": 1.2},
	}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	first, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	first.Items[0].Title = "mutated"
	first.Items[0].Payload["carat"] = 9.9

	second, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.Items[0].Title != "Pendant" {
		t.Fatalf("stored title mutated through returned record: %q", second.Items[0].Title)
	}
	if second.Items[0].Payload["carat"] != 1.2 {
		t.Fatalf("stored payload mutated through returned record: %v", second.Items[0].Payload)
	}
}

func TestAddItem_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Hour)

	record, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, id := range []string{"line_a", "line_b", "line_c"} {
		record, err = AddItem(ctx, store, record, domain.CartItem{ID: id})
		if err != nil {
			t.Fatalf("AddItem %s: %v", id, err)
		}
	}

	fetched, err := store.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(fetched.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(fetched.Items))
	}
	for i, want := range []string{"line_a", "line_b", "line_c"} {
		if fetched.Items[i].ID != want {
			t.Fatalf("item %d = %q, want %q", i, fetched.Items[i].ID, want)
		}
	}
}

func TestNewLineID_Unique(t *testing.T) {
	a, b := NewLineID(), NewLineID()
	if a == b {
		t.Fatalf("line IDs collided: %q", a)
	}
	if !strings.HasPrefix(a, "line_") {
		t.Fatalf("unexpected line ID %q", a)
	}
}
