package shopify

import (
	"context"
	"fmt"
	"log"
	"time"

	"diamond-storefront/internal/domain"
)

// CheckoutCart is the storefront cart created for a compiled line set.
type CheckoutCart struct {
	CartID      string
	CheckoutURL string
}

// Availability reports storefront visibility for one merchandise ID.
type Availability struct {
	ID        string
	Available bool
	// Quantity is nil when the platform does not expose a number for the
	// variant.
	Quantity *int
}

// StorefrontClient wraps the Storefront GraphQL API operations used at
// checkout time.
type StorefrontClient struct {
	client *Client
	logger *log.Logger
}

// NewStorefront builds a StorefrontClient against a Storefront API endpoint.
func NewStorefront(endpoint, token string, timeout time.Duration, logger *log.Logger) *StorefrontClient {
	return &StorefrontClient{
		client: NewClient(endpoint, map[string]string{"X-Shopify-Storefront-Access-Token": token}, timeout),
		logger: logger,
	}
}

// CreateCartWithLines creates a platform cart holding the compiled lines and
// returns its checkout URL.
func (s *StorefrontClient) CreateCartWithLines(ctx context.Context, lines []domain.CheckoutLine) (CheckoutCart, error) {
	const mutation = `
mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { id checkoutUrl }
    userErrors { field message }
  }
}`
	var out struct {
		CartCreate struct {
			Cart *struct {
				ID          string `json:"id"`
				CheckoutURL string `json:"checkoutUrl"`
			} `json:"cart"`
			UserErrors []userError `json:"userErrors"`
		} `json:"cartCreate"`
	}

	lineInputs := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		attrs := make([]map[string]any, 0, len(l.Attributes))
		for _, attr := range l.Attributes {
			attrs = append(attrs, map[string]any{"key": attr.Key, "value": attr.Value})
		}
		lineInputs = append(lineInputs, map[string]any{
			"merchandiseId": l.MerchandiseID,
			"quantity":      l.Quantity,
			"attributes":    attrs,
		})
	}
	vars := map[string]any{"input": map[string]any{"lines": lineInputs}}
	if err := s.client.Do(ctx, mutation, vars, &out); err != nil {
		return CheckoutCart{}, fmt.Errorf("create checkout cart: %w", err)
	}
	if msg := joinUserErrors(out.CartCreate.UserErrors); msg != "" {
		return CheckoutCart{}, fmt.Errorf("create checkout cart: %s", msg)
	}
	if out.CartCreate.Cart == nil || out.CartCreate.Cart.CheckoutURL == "" {
		return CheckoutCart{}, fmt.Errorf("create checkout cart: empty response")
	}
	return CheckoutCart{CartID: out.CartCreate.Cart.ID, CheckoutURL: out.CartCreate.Cart.CheckoutURL}, nil
}

// QueryAvailability checks storefront visibility for the given merchandise
// IDs. A missing node or a non-variant node counts as unavailable.
func (s *StorefrontClient) QueryAvailability(ctx context.Context, ids []string) ([]Availability, error) {
	const query = `
query CheckVariantAvailability($ids: [ID!]!) {
  nodes(ids: $ids) {
    __typename
    ... on ProductVariant {
      id
      availableForSale
      quantityAvailable
    }
  }
}`
	var out struct {
		Nodes []*struct {
			Typename          string `json:"__typename"`
			ID                string `json:"id"`
			AvailableForSale  bool   `json:"availableForSale"`
			QuantityAvailable *int   `json:"quantityAvailable"`
		} `json:"nodes"`
	}
	if err := s.client.Do(ctx, query, map[string]any{"ids": ids}, &out); err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}

	result := make([]Availability, 0, len(ids))
	for i, node := range out.Nodes {
		id := ""
		if i < len(ids) {
			id = ids[i]
		}
		if node == nil || node.Typename != "ProductVariant" {
			result = append(result, Availability{ID: id, Available: false})
			continue
		}
		result = append(result, Availability{ID: node.ID, Available: node.AvailableForSale, Quantity: node.QuantityAvailable})
	}
	return result, nil
}
