package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"diamond-storefront/internal/domain"
	"github.com/google/uuid"
)

// Store is the ephemeral cart store. Records are addressed purely by their
// generated ID; lookups for unknown IDs return domain.ErrNotFound rather
// than failing, and that single signal is what dependent components treat as
// "cart expired or invalid".
//
// Concurrent saves to the same cart ID are last-writer-wins. Operations on
// different IDs never interfere.
type Store interface {
	// Create stores an empty record under id, generating a fresh ID when id
	// is empty.
	Create(ctx context.Context, id string) (*domain.CartRecord, error)
	// Get returns the record for id or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.CartRecord, error)
	// Save replaces the stored record for record.ID, bumping UpdatedAt and
	// creating the slot if absent.
	Save(ctx context.Context, record *domain.CartRecord) (*domain.CartRecord, error)
	// Delete removes the record for id. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id string) error
}

// DefaultTTL keeps carts around for a week, matching how long an external
// item hold is honored.
const DefaultTTL = 7 * 24 * time.Hour

// NewCartID generates a collision-resistant cart identifier.
func NewCartID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("cart_%d_%s", time.Now().UnixMilli(), suffix)
}

// NewLineID generates a line identifier unique within any cart.
func NewLineID() string {
	return "line_" + uuid.NewString()
}

// AddItem appends item to the record and persists it. Uniqueness of external
// items is the caller's job: it must reject duplicates before invoking this.
func AddItem(ctx context.Context, s Store, record *domain.CartRecord, item domain.CartItem) (*domain.CartRecord, error) {
	record.Items = append(record.Items, item)
	return s.Save(ctx, record)
}
