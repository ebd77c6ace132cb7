package domain

// CartView is the client-facing projection of a CartRecord: computed totals
// and per-line costs, shaped like the storefront cart the UI already renders.
// It is display data only, never the authoritative checkout total.
type CartView struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	Cost          CartCost   `json:"cost"`
	DiscountCodes []string   `json:"discountCodes"`
	Lines         []ViewLine `json:"lines"`
}

// CartCost carries display totals. Tax and duty are never computed here.
type CartCost struct {
	TotalAmount     Money  `json:"totalAmount"`
	SubtotalAmount  Money  `json:"subtotalAmount"`
	TotalTaxAmount  *Money `json:"totalTaxAmount"`
	TotalDutyAmount *Money `json:"totalDutyAmount"`
}

// ViewLine is a single display line of a CartView.
type ViewLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Merchandise Merchandise `json:"merchandise"`
	Cost        LineCost    `json:"cost"`
}

// LineCost is the computed total for one display line.
type LineCost struct {
	TotalAmount Money `json:"totalAmount"`
}

// Merchandise is the display view of the item behind a line.
type Merchandise struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Price   Money          `json:"price"`
	Product ProductSummary `json:"product"`
}

// ProductSummary is the minimal product info a cart line renders with.
type ProductSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Handle string  `json:"handle"`
	Images []Image `json:"images"`
}

// Image is a display image with alt text.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}
