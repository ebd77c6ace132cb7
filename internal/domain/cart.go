package domain

// ItemSource tells the checkout line builder how to resolve a cart item to a
// platform merchandise ID.
type ItemSource string

const (
	// SourceShopify marks items sourced from the shop's own Shopify catalog.
	SourceShopify ItemSource = "shopify"
	// SourceExternal marks items sourced from the external diamond feed. They
	// have no native catalog entry until a placeholder variant is provisioned.
	SourceExternal ItemSource = "external"
)

// Money is a decimal amount as the platform APIs exchange it.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Attribute is an ordered key/value pair carried through to checkout lines.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CartItem is a single line of a server-held cart.
type CartItem struct {
	ID     string     `json:"id"`
	Source ItemSource `json:"source"`
	// VariantID is the Shopify variant GID. For external items it is set
	// lazily, once a placeholder variant has been provisioned.
	VariantID     string `json:"variantId,omitempty"`
	ProductHandle string `json:"productHandle,omitempty"`
	// ExternalID is the stable feed identifier of an external item and the
	// de-duplication key for provisioning.
	ExternalID string         `json:"externalId,omitempty"`
	Title      string         `json:"title"`
	ImageURL   string         `json:"imageUrl"`
	Quantity   int            `json:"quantity"`
	Price      Money          `json:"price"`
	Attributes []Attribute    `json:"attributes,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// CartRecord is the server-held cart. Items keep insertion order; that order
// is the display order and the checkout line order.
type CartRecord struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
}

// Attribute returns the value for key in the item's attribute list.
func (i CartItem) Attribute(key string) (string, bool) {
	for _, a := range i.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// EffectiveExternalID resolves the external feed identifier for an item.
// Older carts stored it only as a line attribute, so the dedicated field is
// checked first and the legacy attribute shapes after.
func (i CartItem) EffectiveExternalID() string {
	if i.ExternalID != "" {
		return i.ExternalID
	}
	if v, ok := i.Attribute("_external_id"); ok && v != "" {
		return v
	}
	if v, ok := i.Attribute("Item ID"); ok && v != "" {
		return v
	}
	return ""
}

// SourceBucket returns the placeholder bucket for an external item, derived
// from the _source_type attribute. Unknown or missing values fall back to
// labgrown.
func (i CartItem) SourceBucket() string {
	if v, ok := i.Attribute("_source_type"); ok && v == "natural" {
		return "natural"
	}
	return "labgrown"
}
