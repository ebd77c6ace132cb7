package cart

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"diamond-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return client
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := testRedis(t)
	defer client.Close()

	store := NewRedis(client, time.Hour)

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Items = append(created.Items, domain.CartItem{
		ID:       "line_1",
		Source:   domain.SourceShopify,
		Title:    "Solitaire Setting",
		Quantity: 1,
		Price:    domain.Money{Amount: "900.00", CurrencyCode: "USD"},
	})
	if _, err := store.Save(ctx, created); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fetched, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(fetched.Items) != 1 || fetched.Items[0].Title != "Solitaire Setting" {
		t.Fatalf("unexpected items %+v", fetched.Items)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v after delete, want ErrNotFound", err)
	}
}
