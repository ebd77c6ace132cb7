package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"diamond-storefront/internal/domain"
	cartrepo "diamond-storefront/internal/repository/cart"
)

// ErrProvision wraps failures to prepare a placeholder catalog entry for an
// external item, so the API layer can report them as platform trouble rather
// than a bad request.
var ErrProvision = errors.New("provisioning failed")

type provisioner interface {
	EnsureProduct(ctx context.Context, sourceType string) (string, error)
	EnsureVariant(ctx context.Context, productID, externalID string, price float64, title, imageURL string, payload map[string]any) (string, error)
}

// Service owns cart mutations: item adds (with eager provisioning and
// duplicate-hold rejection for external items), quantity updates, and
// removals. The store itself stays a dumb keyed map; the invariants live
// here.
type Service struct {
	store  cartrepo.Store
	prov   provisioner
	logger *log.Logger
}

// New builds a cart Service.
func New(store cartrepo.Store, prov provisioner, logger *log.Logger) *Service {
	return &Service{store: store, prov: prov, logger: logger}
}

// AddItemInput is the payload for adding one line to a cart.
type AddItemInput struct {
	CartID        string             `json:"cartId"`
	Source        domain.ItemSource  `json:"source"`
	VariantID     string             `json:"variantId"`
	ProductHandle string             `json:"productHandle"`
	ExternalID    string             `json:"externalId"`
	Title         string             `json:"title"`
	ImageURL      string             `json:"imageUrl"`
	Quantity      int                `json:"quantity"`
	Price         domain.Money       `json:"price"`
	Attributes    []domain.Attribute `json:"attributes"`
	Payload       map[string]any     `json:"payload"`
}

// Create stores a fresh empty cart, under the given ID when one is supplied.
func (s *Service) Create(ctx context.Context, id string) (*domain.CartRecord, error) {
	return s.store.Create(ctx, id)
}

// Get returns the cart for id or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.CartRecord, error) {
	return s.store.Get(ctx, id)
}

// AddItem validates and appends a line. For external items it rejects a
// second hold on the same feed item, then provisions the placeholder variant
// up front so checkout later only has to trust the stored variant ref. A
// missing or expired cart ID silently gets a fresh cart.
func (s *Service) AddItem(ctx context.Context, in AddItemInput) (*domain.CartRecord, error) {
	if in.Source != domain.SourceShopify && in.Source != domain.SourceExternal {
		return nil, errors.New(`source must be "shopify" or "external"`)
	}
	if in.Title == "" || in.ImageURL == "" || in.Price.Amount == "" || in.Price.CurrencyCode == "" {
		return nil, errors.New("title, imageUrl and price are required")
	}
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}

	record, err := s.getOrCreate(ctx, in.CartID)
	if err != nil {
		return nil, err
	}

	item := domain.CartItem{
		ID:            cartrepo.NewLineID(),
		Source:        in.Source,
		VariantID:     in.VariantID,
		ProductHandle: in.ProductHandle,
		ExternalID:    in.ExternalID,
		Title:         in.Title,
		ImageURL:      in.ImageURL,
		Quantity:      quantity,
		Price:         in.Price,
		Attributes:    in.Attributes,
		Payload:       in.Payload,
	}

	if in.Source == domain.SourceExternal {
		externalID := item.EffectiveExternalID()
		if externalID == "" {
			return nil, errors.New("externalId or _external_id attribute is required for external items")
		}
		for _, existing := range record.Items {
			if existing.Source == domain.SourceExternal && existing.EffectiveExternalID() == externalID {
				return nil, domain.ErrDuplicateExternal
			}
		}

		price, err := strconv.ParseFloat(in.Price.Amount, 64)
		if err != nil || price <= 0 {
			return nil, errors.New("invalid price for external item")
		}

		productID, err := s.prov.EnsureProduct(ctx, item.SourceBucket())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvision, err)
		}
		variantID, err := s.prov.EnsureVariant(ctx, productID, externalID, price, in.Title, in.ImageURL, in.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvision, err)
		}
		item.VariantID = variantID
		item.ExternalID = externalID
	}

	return cartrepo.AddItem(ctx, s.store, record, item)
}

// UpdateQuantity sets the quantity of a line; zero or below removes it.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) (*domain.CartRecord, error) {
	record, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	found := false
	items := record.Items[:0:0]
	for _, item := range record.Items {
		if item.ID != lineID {
			items = append(items, item)
			continue
		}
		found = true
		if quantity <= 0 {
			continue
		}
		item.Quantity = quantity
		items = append(items, item)
	}
	if !found {
		return nil, domain.ErrNotFound
	}

	record.Items = items
	return s.store.Save(ctx, record)
}

// RemoveItem drops a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, lineID string) (*domain.CartRecord, error) {
	return s.UpdateQuantity(ctx, cartID, lineID, 0)
}

func (s *Service) getOrCreate(ctx context.Context, cartID string) (*domain.CartRecord, error) {
	if cartID != "" {
		record, err := s.store.Get(ctx, cartID)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return s.store.Create(ctx, "")
}
