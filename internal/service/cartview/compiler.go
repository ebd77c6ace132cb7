package cartview

import (
	"strconv"

	"diamond-storefront/internal/domain"
)

// Compile projects a cart record into its display view: computed per-line
// costs and aggregate totals. It is a pure function; calling it any number
// of times on the same record yields identical output and never mutates the
// record.
//
// The currency code is taken from the first item and applied to every
// monetary field. Mixed-currency carts are not supported; totals for such a
// cart are computed as if every item shared the first item's currency.
func Compile(record *domain.CartRecord) domain.CartView {
	if record == nil || len(record.Items) == 0 {
		id := ""
		if record != nil {
			id = record.ID
		}
		return emptyView(id)
	}

	currency := record.Items[0].Price.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	totalQuantity := 0
	subtotal := 0.0
	lines := make([]domain.ViewLine, 0, len(record.Items))

	for _, item := range record.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		totalQuantity += quantity

		unitPrice, _ := strconv.ParseFloat(item.Price.Amount, 64)
		lineTotal := unitPrice * float64(quantity)
		subtotal += lineTotal

		merchandiseID := firstNonEmpty(item.VariantID, item.ExternalID, item.ID)
		productID := firstNonEmpty(item.ProductHandle, item.VariantID, item.ExternalID, item.ID)

		lines = append(lines, domain.ViewLine{
			ID:         item.ID,
			Quantity:   quantity,
			Attributes: item.Attributes,
			Merchandise: domain.Merchandise{
				ID:    merchandiseID,
				Title: item.Title,
				Price: domain.Money{Amount: item.Price.Amount, CurrencyCode: currency},
				Product: domain.ProductSummary{
					ID:     productID,
					Title:  item.Title,
					Handle: item.ProductHandle,
					Images: []domain.Image{{URL: item.ImageURL, AltText: item.Title}},
				},
			},
			Cost: domain.LineCost{
				TotalAmount: domain.Money{Amount: formatAmount(lineTotal), CurrencyCode: currency},
			},
		})
	}

	total := domain.Money{Amount: formatAmount(subtotal), CurrencyCode: currency}
	return domain.CartView{
		ID:            record.ID,
		CheckoutURL:   "",
		TotalQuantity: totalQuantity,
		Cost: domain.CartCost{
			TotalAmount:    total,
			SubtotalAmount: total,
		},
		DiscountCodes: []string{},
		Lines:         lines,
	}
}

func emptyView(id string) domain.CartView {
	zero := domain.Money{Amount: "0.00", CurrencyCode: "USD"}
	return domain.CartView{
		ID:            id,
		CheckoutURL:   "",
		TotalQuantity: 0,
		Cost: domain.CartCost{
			TotalAmount:    zero,
			SubtotalAmount: zero,
		},
		DiscountCodes: []string{},
		Lines:         []domain.ViewLine{},
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
