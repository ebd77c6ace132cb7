package domain

// CheckoutLine is the platform-ready representation of a cart line: a
// resolved merchandise ID, a quantity, and the attributes carried through
// unchanged from the source item. It is transient and never persisted.
type CheckoutLine struct {
	MerchandiseID string      `json:"merchandiseId"`
	Quantity      int         `json:"quantity"`
	Attributes    []Attribute `json:"attributes,omitempty"`
}
