package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"diamond-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore is the durable Store option: one row per cart, items as
// jsonb, expiry enforced at read time so absent and expired carts look the
// same to callers.
type postgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgres builds a Postgres-backed Store. A zero ttl falls back to
// DefaultTTL.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &postgresStore{pool: pool, ttl: ttl}
}

func (s *postgresStore) Create(ctx context.Context, id string) (*domain.CartRecord, error) {
	if id == "" {
		id = NewCartID()
	}
	now := time.Now()
	record := domain.CartRecord{
		ID:        id,
		Items:     []domain.CartItem{},
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}
	if err := s.upsert(ctx, record, now); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *postgresStore) Get(ctx context.Context, id string) (*domain.CartRecord, error) {
	const q = `
SELECT id, items, created_at_ms, updated_at_ms
FROM cart_records
WHERE id = $1 AND expires_at > now()
`
	var record domain.CartRecord
	var items []byte
	err := s.pool.QueryRow(ctx, q, id).Scan(&record.ID, &items, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &record.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if record.Items == nil {
		record.Items = []domain.CartItem{}
	}
	return &record, nil
}

func (s *postgresStore) Save(ctx context.Context, record *domain.CartRecord) (*domain.CartRecord, error) {
	now := time.Now()
	updated := *record
	updated.UpdatedAt = now.UnixMilli()
	if updated.CreatedAt == 0 {
		updated.CreatedAt = updated.UpdatedAt
	}
	if updated.Items == nil {
		updated.Items = []domain.CartItem{}
	}
	if err := s.upsert(ctx, updated, now); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *postgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_records WHERE id = $1`, id)
	return err
}

func (s *postgresStore) upsert(ctx context.Context, record domain.CartRecord, now time.Time) error {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	const q = `
INSERT INTO cart_records (id, items, created_at_ms, updated_at_ms, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET items = EXCLUDED.items,
    updated_at_ms = EXCLUDED.updated_at_ms,
    expires_at = EXCLUDED.expires_at
`
	_, err = s.pool.Exec(ctx, q, record.ID, items, record.CreatedAt, record.UpdatedAt, now.Add(s.ttl))
	return err
}
