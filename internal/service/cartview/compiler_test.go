package cartview

import (
	"reflect"
	"testing"

	"diamond-storefront/internal/domain"
)

func TestCompile_NilAndEmpty(t *testing.T) {
	view := Compile(nil)
	if view.TotalQuantity != 0 || len(view.Lines) != 0 {
		t.Fatalf("unexpected view for nil record: %+v", view)
	}
	if view.Cost.TotalAmount.Amount != "0.00" || view.Cost.TotalAmount.CurrencyCode != "USD" {
		t.Fatalf("unexpected zero cost: %+v", view.Cost)
	}
	if view.Lines == nil || view.DiscountCodes == nil {
		t.Fatal("empty view must use empty slices, not nil")
	}

	view = Compile(&domain.CartRecord{ID: "cart_1_a"})
	if view.ID != "cart_1_a" || view.TotalQuantity != 0 {
		t.Fatalf("unexpected view for empty record: %+v", view)
	}
}

func TestCompile_Totals(t *testing.T) {
	record := &domain.CartRecord{
		ID: "cart_1_a",
		Items: []domain.CartItem{
			{
				ID:        "line_1",
				Source:    domain.SourceShopify,
				VariantID: "gid://shopify/ProductVariant/11",
				Title:     "Band",
				Quantity:  2,
				Price:     domain.Money{Amount: "25.00", CurrencyCode: "USD"},
			},
			{
				ID:         "line_2",
				Source:     domain.SourceExternal,
				ExternalID: "D1",
				Title:      "Diamond D1",
				Quantity:   1,
				Price:      domain.Money{Amount: "500.00", CurrencyCode: "USD"},
			},
		},
	}

	view := Compile(record)
	if view.TotalQuantity != 3 {
		t.Fatalf("TotalQuantity = %d, want 3", view.TotalQuantity)
	}
	if view.Cost.TotalAmount.Amount != "550.00" {
		t.Fatalf("TotalAmount = %q, want 550.00", view.Cost.TotalAmount.Amount)
	}
	if view.Cost.SubtotalAmount != view.Cost.TotalAmount {
		t.Fatalf("subtotal %v != total %v", view.Cost.SubtotalAmount, view.Cost.TotalAmount)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(view.Lines))
	}
	if view.Lines[0].Cost.TotalAmount.Amount != "50.00" {
		t.Fatalf("line 0 total = %q, want 50.00", view.Lines[0].Cost.TotalAmount.Amount)
	}
	if view.Lines[0].Merchandise.ID != "gid://shopify/ProductVariant/11" {
		t.Fatalf("line 0 merchandise = %q", view.Lines[0].Merchandise.ID)
	}
	if view.Lines[1].Merchandise.ID != "D1" {
		t.Fatalf("line 1 merchandise = %q", view.Lines[1].Merchandise.ID)
	}
}

func TestCompile_QuantityFloor(t *testing.T) {
	record := &domain.CartRecord{
		ID: "cart_1_a",
		Items: []domain.CartItem{
			{ID: "line_1", Quantity: 0, Price: domain.Money{Amount: "10.00", CurrencyCode: "USD"}},
			{ID: "line_2", Quantity: -3, Price: domain.Money{Amount: "10.00", CurrencyCode: "USD"}},
		},
	}

	view := Compile(record)
	if view.TotalQuantity != 2 {
		t.Fatalf("TotalQuantity = %d, want 2", view.TotalQuantity)
	}
	if view.Cost.TotalAmount.Amount != "20.00" {
		t.Fatalf("TotalAmount = %q, want 20.00", view.Cost.TotalAmount.Amount)
	}
}

func TestCompile_FirstItemCurrencyWins(t *testing.T) {
	record := &domain.CartRecord{
		ID: "cart_1_a",
		Items: []domain.CartItem{
			{ID: "line_1", Quantity: 1, Price: domain.Money{Amount: "100.00", CurrencyCode: "EUR"}},
			{ID: "line_2", Quantity: 1, Price: domain.Money{Amount: "50.00", CurrencyCode: "USD"}},
		},
	}

	view := Compile(record)
	if view.Cost.TotalAmount.CurrencyCode != "EUR" {
		t.Fatalf("currency = %q, want EUR", view.Cost.TotalAmount.CurrencyCode)
	}
	if view.Lines[1].Merchandise.Price.CurrencyCode != "EUR" {
		t.Fatalf("line currency = %q, want EUR", view.Lines[1].Merchandise.Price.CurrencyCode)
	}
	if view.Cost.TotalAmount.Amount != "150.00" {
		t.Fatalf("TotalAmount = %q, want 150.00", view.Cost.TotalAmount.Amount)
	}
}

func TestCompile_Pure(t *testing.T) {
	record := &domain.CartRecord{
		ID: "cart_1_a",
		Items: []domain.CartItem{
			{
				ID:         "line_1",
				Quantity:   2,
				Price:      domain.Money{Amount: "42.50", CurrencyCode: "USD"},
				Attributes: []domain.Attribute{{Key: "_external_id", Value: "X1"}},
			},
		},
	}

	before := *record
	first := Compile(record)
	second := Compile(record)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("compile not deterministic:\nfirst  %+v\nsecond %+v", first, second)
	}
	if record.ID != before.ID || len(record.Items) != 1 || record.Items[0].Quantity != 2 {
		t.Fatalf("record mutated by Compile: %+v", record)
	}
}
