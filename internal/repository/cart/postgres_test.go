package cart

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"diamond-storefront/internal/domain"
	"diamond-storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE cart_records`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	store := NewPostgres(pool, time.Hour)

	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Items = append(created.Items, domain.CartItem{
		ID:         "line_1",
		Source:     domain.SourceExternal,
		ExternalID: "D100",
		Title:      "Round Brilliant 1.0ct",
		Quantity:   1,
		Price:      domain.Money{Amount: "2500.00", CurrencyCode: "USD"},
		Payload:    map[string]any{"shape": "round"},
	})
	if _, err := store.Save(ctx, created); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fetched, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(fetched.Items) != 1 || fetched.Items[0].ExternalID != "D100" {
		t.Fatalf("unexpected items %+v", fetched.Items)
	}
	if fetched.Items[0].Payload["shape"] != "round" {
		t.Fatalf("payload not preserved: %v", fetched.Items[0].Payload)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v after delete, want ErrNotFound", err)
	}
}

func TestPostgres_ExpiredRecordNotReturned(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := NewPostgres(pool, time.Millisecond)
	created, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v for expired record, want ErrNotFound", err)
	}
}
