package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"diamond-storefront/internal/domain"
	"diamond-storefront/internal/shopify"
	"github.com/google/uuid"
)

const (
	depositRate  = 0.30
	depositFloor = 50.00
)

// DerivePlan splits a checkout total into deposit and remainder. The
// deposit is 30% of the total, floored at 50.00. Remaining is simply total
// minus deposit and goes negative below the floor; callers that offer
// partial payment must gate on that themselves.
func DerivePlan(totalAmount float64, currencyCode string) domain.DepositPlan {
	deposit := round2(math.Max(totalAmount*depositRate, depositFloor))
	return domain.DepositPlan{
		TotalAmount:     round2(totalAmount),
		DepositAmount:   deposit,
		RemainingAmount: round2(totalAmount - deposit),
		CurrencyCode:    currencyCode,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateDepositSession compiles the cart, derives the deposit plan, backs it
// with a platform draft order, and stores the session. Carts whose total
// falls under the deposit floor are refused: collecting a deposit larger
// than the order makes no sense.
func (s *Service) CreateDepositSession(ctx context.Context, cartID string, snapshot *domain.CartView, customerID string) (*domain.DepositSession, error) {
	build, err := s.BuildLines(ctx, cartID, snapshot)
	if err != nil {
		return nil, err
	}

	plan := DerivePlan(build.TotalAmount, build.CurrencyCode)
	if plan.RemainingAmount < 0 {
		return nil, fmt.Errorf("cart total %.2f is below the %.2f deposit minimum", plan.TotalAmount, depositFloor)
	}

	sessionID := "dep_" + uuid.NewString()
	draftLines := make([]shopify.DraftOrderLine, 0, len(build.Lines))
	for _, line := range build.Lines {
		draftLines = append(draftLines, shopify.DraftOrderLine{VariantID: line.MerchandiseID, Quantity: line.Quantity})
	}
	draftOrderID, err := s.admin.CreateDraftOrder(ctx, shopify.DraftOrderInput{
		Lines:      draftLines,
		CustomerID: customerID,
		Tags:       []string{"partial-payment"},
		Attributes: []domain.Attribute{{Key: "session_id", Value: sessionID}},
	})
	if err != nil {
		return nil, fmt.Errorf("create draft order for deposit session: %w", err)
	}

	now := time.Now()
	session := &domain.DepositSession{
		ID:              sessionID,
		CustomerID:      customerID,
		Lines:           build.Lines,
		TotalAmount:     plan.TotalAmount,
		DepositAmount:   plan.DepositAmount,
		RemainingAmount: plan.RemainingAmount,
		CurrencyCode:    plan.CurrencyCode,
		DraftOrderID:    draftOrderID,
		CreatedAt:       now.UnixMilli(),
		ExpiresAt:       now.Add(24 * time.Hour).UnixMilli(),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetDepositSession returns a stored session or domain.ErrNotFound.
func (s *Service) GetDepositSession(ctx context.Context, sessionID string) (*domain.DepositSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// DepositCheckout creates the checkout collecting a session's deposit. Each
// session gets its own one-off variant under the configured deposit product
// so concurrent sessions never share a price.
func (s *Service) DepositCheckout(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s.depositProductID == "" {
		return "", errors.New("deposit product is not configured")
	}

	shortID := sessionID
	if len(shortID) > 8 {
		shortID = shortID[len(shortID)-8:]
	}
	sku := "DEP-" + shortID

	variantID, err := s.admin.CreateVariant(ctx, s.depositProductID, shopify.VariantInput{
		Price:       strconv.FormatFloat(session.DepositAmount, 'f', 2, 64),
		SKU:         sku,
		OptionValue: sku,
	})
	if errors.Is(err, domain.ErrConflict) {
		// Retried session: the variant exists from a previous attempt.
		variantID, err = s.admin.FindVariantBySKU(ctx, sku)
		if err == nil && variantID == "" {
			err = fmt.Errorf("deposit variant %s reported as existing but not found", sku)
		}
	}
	if err != nil {
		return "", fmt.Errorf("create deposit variant: %w", err)
	}

	// Inventory and publishing are best-effort here; an untracked deposit
	// variant can still check out.
	if err := s.admin.SetVariantInventory(ctx, variantID, 1); err != nil {
		s.logger.Printf("set deposit variant inventory: %v", err)
	}
	if err := s.admin.EnsurePublished(ctx, s.depositProductID); err != nil {
		s.logger.Printf("publish deposit product: %v", err)
	}

	cart, err := s.storefront.CreateCartWithLines(ctx, []domain.CheckoutLine{{
		MerchandiseID: variantID,
		Quantity:      1,
		Attributes:    []domain.Attribute{{Key: "session_id", Value: sessionID}},
	}})
	if err != nil {
		return "", fmt.Errorf("create deposit checkout: %w", err)
	}

	session.CheckoutURL = cart.CheckoutURL
	if err := s.sessions.Put(ctx, session); err != nil {
		s.logger.Printf("update deposit session %s: %v", sessionID, err)
	}
	return cart.CheckoutURL, nil
}
