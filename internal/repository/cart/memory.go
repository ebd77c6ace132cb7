package cart

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"diamond-storefront/internal/domain"
)

const shardCount = 16

// memoryStore is the default Store: a key-partitioned in-process map with
// per-record expiry. Shards keep unrelated cart IDs off the same lock.
type memoryStore struct {
	shards [shardCount]*memoryShard
	ttl    time.Duration
	now    func() time.Time
}

type memoryShard struct {
	mu    sync.RWMutex
	carts map[string]storedRecord
}

type storedRecord struct {
	record    domain.CartRecord
	expiresAt time.Time
}

// NewMemory builds an in-memory Store with the given record TTL. A zero ttl
// falls back to DefaultTTL.
func NewMemory(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &memoryStore{ttl: ttl, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{carts: make(map[string]storedRecord)}
	}
	return s
}

func (s *memoryStore) shard(id string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

func (s *memoryStore) Create(_ context.Context, id string) (*domain.CartRecord, error) {
	if id == "" {
		id = NewCartID()
	}
	now := s.now()
	record := domain.CartRecord{
		ID:        id,
		Items:     []domain.CartItem{},
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}

	sh := s.shard(id)
	sh.mu.Lock()
	sh.carts[id] = storedRecord{record: cloneRecord(record), expiresAt: now.Add(s.ttl)}
	sh.evictExpiredLocked(now)
	sh.mu.Unlock()

	return &record, nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*domain.CartRecord, error) {
	sh := s.shard(id)
	sh.mu.RLock()
	stored, ok := sh.carts[id]
	sh.mu.RUnlock()

	if !ok || s.now().After(stored.expiresAt) {
		return nil, domain.ErrNotFound
	}
	out := cloneRecord(stored.record)
	return &out, nil
}

func (s *memoryStore) Save(_ context.Context, record *domain.CartRecord) (*domain.CartRecord, error) {
	now := s.now()
	updated := cloneRecord(*record)
	updated.UpdatedAt = now.UnixMilli()
	if updated.CreatedAt == 0 {
		updated.CreatedAt = now.UnixMilli()
	}
	if updated.Items == nil {
		updated.Items = []domain.CartItem{}
	}

	sh := s.shard(updated.ID)
	sh.mu.Lock()
	sh.carts[updated.ID] = storedRecord{record: cloneRecord(updated), expiresAt: now.Add(s.ttl)}
	sh.mu.Unlock()

	return &updated, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	sh := s.shard(id)
	sh.mu.Lock()
	delete(sh.carts, id)
	sh.mu.Unlock()
	return nil
}

func (sh *memoryShard) evictExpiredLocked(now time.Time) {
	for id, stored := range sh.carts {
		if now.After(stored.expiresAt) {
			delete(sh.carts, id)
		}
	}
}

// cloneRecord keeps stored state isolated from caller mutations.
func cloneRecord(r domain.CartRecord) domain.CartRecord {
	out := r
	out.Items = make([]domain.CartItem, len(r.Items))
	copy(out.Items, r.Items)
	for i, item := range out.Items {
		if item.Attributes != nil {
			attrs := make([]domain.Attribute, len(item.Attributes))
			copy(attrs, item.Attributes)
			out.Items[i].Attributes = attrs
		}
		if item.Payload != nil {
			payload := make(map[string]any, len(item.Payload))
			for k, v := range item.Payload {
				payload[k] = v
			}
			out.Items[i].Payload = payload
		}
	}
	return out
}
