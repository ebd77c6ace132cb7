package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"diamond-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

// redisStore keeps cart records in Redis as JSON values with a TTL, so carts
// survive process restarts without giving up the ephemeral contract.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds a Redis-backed Store. A zero ttl falls back to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Create(ctx context.Context, id string) (*domain.CartRecord, error) {
	if id == "" {
		id = NewCartID()
	}
	now := time.Now().UnixMilli()
	record := domain.CartRecord{
		ID:        id,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.set(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*domain.CartRecord, error) {
	data, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var record domain.CartRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &record, nil
}

func (s *redisStore) Save(ctx context.Context, record *domain.CartRecord) (*domain.CartRecord, error) {
	updated := *record
	updated.UpdatedAt = time.Now().UnixMilli()
	if updated.CreatedAt == 0 {
		updated.CreatedAt = updated.UpdatedAt
	}
	if updated.Items == nil {
		updated.Items = []domain.CartItem{}
	}
	if err := s.set(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *redisStore) set(ctx context.Context, record domain.CartRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(record.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("cart:%s", id)
}
