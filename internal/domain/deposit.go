package domain

// DepositPlan splits a checkout total into an upfront deposit and the
// remaining balance. The deposit is 30% of the total with a 50.00 floor.
// RemainingAmount is not clamped: below the floor it goes negative and the
// caller decides whether to offer partial payment at all.
type DepositPlan struct {
	TotalAmount     float64 `json:"totalAmount"`
	DepositAmount   float64 `json:"depositAmount"`
	RemainingAmount float64 `json:"remainingAmount"`
	CurrencyCode    string  `json:"currencyCode"`
}

// DepositSession is a short-lived record of a partial-payment offer: the
// compiled lines it covers, the derived plan, and the platform draft order
// backing it.
type DepositSession struct {
	ID              string         `json:"sessionId"`
	CustomerID      string         `json:"customerId,omitempty"`
	Lines           []CheckoutLine `json:"lines"`
	TotalAmount     float64        `json:"totalAmount"`
	DepositAmount   float64        `json:"depositAmount"`
	RemainingAmount float64        `json:"remainingAmount"`
	CurrencyCode    string         `json:"currencyCode"`
	DraftOrderID    string         `json:"draftOrderId"`
	CheckoutURL     string         `json:"checkoutUrl,omitempty"`
	CreatedAt       int64          `json:"createdAt"`
	ExpiresAt       int64          `json:"expiresAt"`
}
