package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"diamond-storefront/internal/domain"
)

// VariantInput carries the fields set when creating or updating a variant.
type VariantInput struct {
	Price string
	SKU   string
	// OptionValue becomes the variant's option so the product can hold one
	// variant per external item without colliding on "Default Title".
	OptionValue string
}

// DraftOrderLine is one line of a draft order.
type DraftOrderLine struct {
	VariantID string
	Quantity  int
}

// DraftOrderInput carries what the deposit flow needs to create a draft order.
type DraftOrderInput struct {
	Lines      []DraftOrderLine
	CustomerID string
	Tags       []string
	Attributes []domain.Attribute
}

// AdminClient wraps the Shopify Admin GraphQL API operations used for
// provisioning placeholder products, variants, and draft orders.
type AdminClient struct {
	client *Client
	logger *log.Logger

	mu            sync.Mutex
	publicationID string
	locationID    string
}

// NewAdmin builds an AdminClient against an Admin API endpoint.
func NewAdmin(endpoint, token string, timeout time.Duration, logger *log.Logger) *AdminClient {
	return &AdminClient{
		client: NewClient(endpoint, map[string]string{"X-Shopify-Access-Token": token}, timeout),
		logger: logger,
	}
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func joinUserErrors(errs []userError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// isConflictMessage recognizes the platform's "already exists" style
// rejections so create paths can fall back to a lookup.
func isConflictMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already exists") || strings.Contains(lower, "has already been taken")
}

// FindProductByTag returns the ID of the first product tagged with tag, or
// empty when none exists.
func (a *AdminClient) FindProductByTag(ctx context.Context, tag string) (string, error) {
	const query = `
query FindProductByTag($query: String!) {
  products(first: 1, query: $query) {
    edges { node { id } }
  }
}`
	var out struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := a.client.Do(ctx, query, map[string]any{"query": "tag:" + tag}, &out); err != nil {
		return "", fmt.Errorf("find product by tag %q: %w", tag, err)
	}
	if len(out.Products.Edges) == 0 {
		return "", nil
	}
	return out.Products.Edges[0].Node.ID, nil
}

// CreateProduct creates an active product tagged with tag. Shopify gives a
// new product a default variant, so the product is never left variant-less.
func (a *AdminClient) CreateProduct(ctx context.Context, tag, title string) (string, error) {
	const mutation = `
mutation CreateProduct($input: ProductInput!) {
  productCreate(input: $input) {
    product { id }
    userErrors { field message }
  }
}`
	var out struct {
		ProductCreate struct {
			Product *struct {
				ID string `json:"id"`
			} `json:"product"`
			UserErrors []userError `json:"userErrors"`
		} `json:"productCreate"`
	}
	input := map[string]any{
		"title":  title,
		"tags":   []string{tag},
		"status": "ACTIVE",
	}
	if err := a.client.Do(ctx, mutation, map[string]any{"input": input}, &out); err != nil {
		return "", fmt.Errorf("create product %q: %w", tag, err)
	}
	if msg := joinUserErrors(out.ProductCreate.UserErrors); msg != "" {
		return "", fmt.Errorf("create product %q: %s", tag, msg)
	}
	if out.ProductCreate.Product == nil {
		return "", fmt.Errorf("create product %q: empty response", tag)
	}
	return out.ProductCreate.Product.ID, nil
}

// EnsurePublished publishes the product to the online store publication so
// the storefront API can see it.
func (a *AdminClient) EnsurePublished(ctx context.Context, productID string) error {
	pubID, err := a.onlineStorePublication(ctx)
	if err != nil {
		return err
	}
	const mutation = `
mutation PublishProduct($id: ID!, $input: [PublicationInput!]!) {
  publishablePublish(id: $id, input: $input) {
    userErrors { field message }
  }
}`
	var out struct {
		PublishablePublish struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"publishablePublish"`
	}
	vars := map[string]any{
		"id":    productID,
		"input": []map[string]any{{"publicationId": pubID}},
	}
	if err := a.client.Do(ctx, mutation, vars, &out); err != nil {
		return fmt.Errorf("publish product %s: %w", productID, err)
	}
	if msg := joinUserErrors(out.PublishablePublish.UserErrors); msg != "" && !isConflictMessage(msg) {
		return fmt.Errorf("publish product %s: %s", productID, msg)
	}
	return nil
}

func (a *AdminClient) onlineStorePublication(ctx context.Context) (string, error) {
	a.mu.Lock()
	cached := a.publicationID
	a.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	const query = `
query Publications {
  publications(first: 10) {
    edges { node { id name } }
  }
}`
	var out struct {
		Publications struct {
			Edges []struct {
				Node struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"publications"`
	}
	if err := a.client.Do(ctx, query, nil, &out); err != nil {
		return "", fmt.Errorf("list publications: %w", err)
	}
	for _, e := range out.Publications.Edges {
		if e.Node.Name == "Online Store" {
			a.mu.Lock()
			a.publicationID = e.Node.ID
			a.mu.Unlock()
			return e.Node.ID, nil
		}
	}
	if len(out.Publications.Edges) > 0 {
		id := out.Publications.Edges[0].Node.ID
		a.mu.Lock()
		a.publicationID = id
		a.mu.Unlock()
		return id, nil
	}
	return "", fmt.Errorf("list publications: none available")
}

// FindVariantBySKU returns the variant ID carrying sku, or empty when none
// exists. SKUs encode the external item ID, so this is the idempotency probe.
func (a *AdminClient) FindVariantBySKU(ctx context.Context, sku string) (string, error) {
	const query = `
query FindVariantBySKU($query: String!) {
  productVariants(first: 1, query: $query) {
    edges { node { id } }
  }
}`
	var out struct {
		ProductVariants struct {
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	}
	if err := a.client.Do(ctx, query, map[string]any{"query": "sku:" + sku}, &out); err != nil {
		return "", fmt.Errorf("find variant by sku %q: %w", sku, err)
	}
	if len(out.ProductVariants.Edges) == 0 {
		return "", nil
	}
	return out.ProductVariants.Edges[0].Node.ID, nil
}

// CreateVariant adds a variant to productID. A rejection because the option
// value or SKU is taken comes back wrapped in domain.ErrConflict so callers
// can re-query instead of failing.
func (a *AdminClient) CreateVariant(ctx context.Context, productID string, in VariantInput) (string, error) {
	const mutation = `
mutation CreateVariant($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkCreate(productId: $productId, variants: $variants) {
    productVariants { id }
    userErrors { field message }
  }
}`
	var out struct {
		ProductVariantsBulkCreate struct {
			ProductVariants []struct {
				ID string `json:"id"`
			} `json:"productVariants"`
			UserErrors []userError `json:"userErrors"`
		} `json:"productVariantsBulkCreate"`
	}
	variant := map[string]any{
		"price":         in.Price,
		"optionValues":  []map[string]any{{"name": in.OptionValue, "optionName": "Title"}},
		"inventoryItem": map[string]any{"sku": in.SKU, "tracked": true},
	}
	vars := map[string]any{"productId": productID, "variants": []any{variant}}
	if err := a.client.Do(ctx, mutation, vars, &out); err != nil {
		return "", fmt.Errorf("create variant %q: %w", in.SKU, err)
	}
	if msg := joinUserErrors(out.ProductVariantsBulkCreate.UserErrors); msg != "" {
		if isConflictMessage(msg) {
			return "", fmt.Errorf("create variant %q: %s: %w", in.SKU, msg, domain.ErrConflict)
		}
		return "", fmt.Errorf("create variant %q: %s", in.SKU, msg)
	}
	if len(out.ProductVariantsBulkCreate.ProductVariants) == 0 {
		return "", fmt.Errorf("create variant %q: empty response", in.SKU)
	}
	return out.ProductVariantsBulkCreate.ProductVariants[0].ID, nil
}

// UpdateVariant syncs price and SKU on an existing variant.
func (a *AdminClient) UpdateVariant(ctx context.Context, productID, variantID string, in VariantInput) error {
	const mutation = `
mutation UpdateVariant($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    userErrors { field message }
  }
}`
	var out struct {
		ProductVariantsBulkUpdate struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	}
	variant := map[string]any{
		"id":            variantID,
		"price":         in.Price,
		"inventoryItem": map[string]any{"sku": in.SKU},
	}
	vars := map[string]any{"productId": productID, "variants": []any{variant}}
	if err := a.client.Do(ctx, mutation, vars, &out); err != nil {
		return fmt.Errorf("update variant %s: %w", variantID, err)
	}
	if msg := joinUserErrors(out.ProductVariantsBulkUpdate.UserErrors); msg != "" {
		return fmt.Errorf("update variant %s: %s", variantID, msg)
	}
	return nil
}

// SetVariantInventory sets the on-hand quantity for a variant at the shop's
// primary location. External items are one-of-a-kind, so this is 1 in
// practice.
func (a *AdminClient) SetVariantInventory(ctx context.Context, variantID string, quantity int) error {
	invItemID, err := a.inventoryItem(ctx, variantID)
	if err != nil {
		return err
	}
	locID, err := a.primaryLocation(ctx)
	if err != nil {
		return err
	}

	const mutation = `
mutation SetInventory($input: InventorySetOnHandQuantitiesInput!) {
  inventorySetOnHandQuantities(input: $input) {
    userErrors { field message }
  }
}`
	var out struct {
		InventorySetOnHandQuantities struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"inventorySetOnHandQuantities"`
	}
	input := map[string]any{
		"reason": "correction",
		"setQuantities": []map[string]any{{
			"inventoryItemId": invItemID,
			"locationId":      locID,
			"quantity":        quantity,
		}},
	}
	if err := a.client.Do(ctx, mutation, map[string]any{"input": input}, &out); err != nil {
		return fmt.Errorf("set inventory for %s: %w", variantID, err)
	}
	if msg := joinUserErrors(out.InventorySetOnHandQuantities.UserErrors); msg != "" {
		return fmt.Errorf("set inventory for %s: %s", variantID, msg)
	}
	return nil
}

func (a *AdminClient) inventoryItem(ctx context.Context, variantID string) (string, error) {
	const query = `
query VariantInventoryItem($id: ID!) {
  productVariant(id: $id) {
    inventoryItem { id }
  }
}`
	var out struct {
		ProductVariant *struct {
			InventoryItem struct {
				ID string `json:"id"`
			} `json:"inventoryItem"`
		} `json:"productVariant"`
	}
	if err := a.client.Do(ctx, query, map[string]any{"id": variantID}, &out); err != nil {
		return "", fmt.Errorf("inventory item for %s: %w", variantID, err)
	}
	if out.ProductVariant == nil {
		return "", fmt.Errorf("inventory item for %s: variant not found", variantID)
	}
	return out.ProductVariant.InventoryItem.ID, nil
}

func (a *AdminClient) primaryLocation(ctx context.Context) (string, error) {
	a.mu.Lock()
	cached := a.locationID
	a.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	const query = `
query Locations {
  locations(first: 1) {
    edges { node { id } }
  }
}`
	var out struct {
		Locations struct {
			Edges []struct {
				Node struct {
					ID string `json:"id"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"locations"`
	}
	if err := a.client.Do(ctx, query, nil, &out); err != nil {
		return "", fmt.Errorf("list locations: %w", err)
	}
	if len(out.Locations.Edges) == 0 {
		return "", fmt.Errorf("list locations: none available")
	}
	id := out.Locations.Edges[0].Node.ID
	a.mu.Lock()
	a.locationID = id
	a.mu.Unlock()
	return id, nil
}

// SetVariantPayload stores the raw feed payload on the variant as a JSON
// metafield so the provisioned catalog entry keeps the item's descriptive
// data.
func (a *AdminClient) SetVariantPayload(ctx context.Context, variantID string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", variantID, err)
	}

	const mutation = `
mutation SetVariantPayload($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    userErrors { field message }
  }
}`
	var out struct {
		MetafieldsSet struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	metafields := []map[string]any{{
		"ownerId":   variantID,
		"namespace": "custom",
		"key":       "payload",
		"type":      "json",
		"value":     string(raw),
	}}
	if err := a.client.Do(ctx, mutation, map[string]any{"metafields": metafields}, &out); err != nil {
		return fmt.Errorf("set payload for %s: %w", variantID, err)
	}
	if msg := joinUserErrors(out.MetafieldsSet.UserErrors); msg != "" {
		return fmt.Errorf("set payload for %s: %s", variantID, msg)
	}
	return nil
}

// CreateDraftOrder creates a draft order backing a deposit session.
func (a *AdminClient) CreateDraftOrder(ctx context.Context, in DraftOrderInput) (string, error) {
	const mutation = `
mutation CreateDraftOrder($input: DraftOrderInput!) {
  draftOrderCreate(input: $input) {
    draftOrder { id }
    userErrors { field message }
  }
}`
	var out struct {
		DraftOrderCreate struct {
			DraftOrder *struct {
				ID string `json:"id"`
			} `json:"draftOrder"`
			UserErrors []userError `json:"userErrors"`
		} `json:"draftOrderCreate"`
	}

	lineItems := make([]map[string]any, 0, len(in.Lines))
	for _, l := range in.Lines {
		lineItems = append(lineItems, map[string]any{"variantId": l.VariantID, "quantity": l.Quantity})
	}
	attrs := make([]map[string]any, 0, len(in.Attributes))
	for _, attr := range in.Attributes {
		attrs = append(attrs, map[string]any{"key": attr.Key, "value": attr.Value})
	}
	input := map[string]any{
		"lineItems":        lineItems,
		"tags":             in.Tags,
		"customAttributes": attrs,
	}
	if in.CustomerID != "" {
		input["purchasingEntity"] = map[string]any{"customerId": in.CustomerID}
	}
	if err := a.client.Do(ctx, mutation, map[string]any{"input": input}, &out); err != nil {
		return "", fmt.Errorf("create draft order: %w", err)
	}
	if msg := joinUserErrors(out.DraftOrderCreate.UserErrors); msg != "" {
		return "", fmt.Errorf("create draft order: %s", msg)
	}
	if out.DraftOrderCreate.DraftOrder == nil {
		return "", fmt.Errorf("create draft order: empty response")
	}
	return out.DraftOrderCreate.DraftOrder.ID, nil
}
