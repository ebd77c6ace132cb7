package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"diamond-storefront/internal/domain"
	cartrepo "diamond-storefront/internal/repository/cart"
	sessionrepo "diamond-storefront/internal/repository/session"
	"diamond-storefront/internal/shopify"
)

const shopifyVariantPrefix = "gid://shopify/ProductVariant/"

// legacyVariantPrefix marks external items that older cart data mis-tagged
// as shopify-sourced, storing "variant-<externalId>" in the variant field.
const legacyVariantPrefix = "variant-"

type provisioner interface {
	EnsureProduct(ctx context.Context, sourceType string) (string, error)
	EnsureVariant(ctx context.Context, productID, externalID string, price float64, title, imageURL string, payload map[string]any) (string, error)
}

// StorefrontAPI is the slice of the storefront API the checkout path needs.
type StorefrontAPI interface {
	CreateCartWithLines(ctx context.Context, lines []domain.CheckoutLine) (shopify.CheckoutCart, error)
	QueryAvailability(ctx context.Context, ids []string) ([]shopify.Availability, error)
}

// AdminAPI is the slice of the admin API the deposit flow needs.
type AdminAPI interface {
	CreateDraftOrder(ctx context.Context, in shopify.DraftOrderInput) (string, error)
	CreateVariant(ctx context.Context, productID string, in shopify.VariantInput) (string, error)
	FindVariantBySKU(ctx context.Context, sku string) (string, error)
	SetVariantInventory(ctx context.Context, variantID string, quantity int) error
	EnsurePublished(ctx context.Context, productID string) error
}

// Deps wires the checkout Service.
type Deps struct {
	Store            cartrepo.Store
	Provisioner      provisioner
	Storefront       StorefrontAPI
	Admin            AdminAPI
	Sessions         sessionrepo.Store
	DepositProductID string
	Logger           *log.Logger
}

// Service compiles an internal cart into platform checkout lines and drives
// the checkout and partial-payment flows built on top of that compilation.
type Service struct {
	store            cartrepo.Store
	prov             provisioner
	storefront       StorefrontAPI
	admin            AdminAPI
	sessions         sessionrepo.Store
	depositProductID string
	logger           *log.Logger

	availabilityAttempts int
	availabilityDelay    time.Duration
	sleep                func(ctx context.Context, d time.Duration) error
}

// New builds a checkout Service.
func New(deps Deps) *Service {
	return &Service{
		store:                deps.Store,
		prov:                 deps.Provisioner,
		storefront:           deps.Storefront,
		admin:                deps.Admin,
		sessions:             deps.Sessions,
		depositProductID:     deps.DepositProductID,
		logger:               deps.Logger,
		availabilityAttempts: 4,
		availabilityDelay:    1500 * time.Millisecond,
		sleep:                sleepCtx,
	}
}

// BuildResult is a compiled line set with its aggregate total.
type BuildResult struct {
	Lines        []domain.CheckoutLine
	TotalAmount  float64
	CurrencyCode string
}

// UnavailableError reports merchandise that the storefront still considers
// unavailable after the preflight retries.
type UnavailableError struct {
	MerchandiseIDs []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("items no longer available or not yet ready for checkout: %s", strings.Join(e.MerchandiseIDs, ", "))
}

// BuildLines compiles the cart into platform checkout lines. The cart is
// looked up by ID; if the store has lost it and the client supplied a
// snapshot of the last rendered view, lines are compiled from the snapshot
// instead. The compile is all-or-nothing: one unresolvable line fails the
// whole build with an error naming the item, and no partial line set is
// ever returned. Output line order matches cart item order.
func (s *Service) BuildLines(ctx context.Context, cartID string, snapshot *domain.CartView) (BuildResult, error) {
	if cartID == "" {
		if snapshot == nil {
			return BuildResult{}, errors.New("cartId or cart snapshot is required")
		}
		return s.buildFromSnapshot(snapshot)
	}

	record, err := s.store.Get(ctx, cartID)
	if errors.Is(err, domain.ErrNotFound) {
		if snapshot != nil {
			return s.buildFromSnapshot(snapshot)
		}
		return BuildResult{}, fmt.Errorf("internal cart not found or expired: %w", domain.ErrNotFound)
	}
	if err != nil {
		return BuildResult{}, err
	}

	if len(record.Items) == 0 {
		return BuildResult{}, domain.ErrCartEmpty
	}

	currency := record.Items[0].Price.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	var (
		lines []domain.CheckoutLine
		total float64
	)
	for _, item := range record.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}

		unitPrice, err := strconv.ParseFloat(item.Price.Amount, 64)
		if err != nil || unitPrice <= 0 {
			return BuildResult{}, fmt.Errorf("invalid price for item %q", item.Title)
		}

		merchandiseID, err := s.resolveMerchandise(ctx, item, unitPrice)
		if err != nil {
			return BuildResult{}, err
		}

		lines = append(lines, domain.CheckoutLine{
			MerchandiseID: merchandiseID,
			Quantity:      quantity,
			Attributes:    item.Attributes,
		})
		total += unitPrice * float64(quantity)
	}

	return BuildResult{Lines: lines, TotalAmount: total, CurrencyCode: currency}, nil
}

func (s *Service) resolveMerchandise(ctx context.Context, item domain.CartItem, unitPrice float64) (string, error) {
	switch item.Source {
	case domain.SourceShopify:
		if item.VariantID == "" {
			return "", fmt.Errorf("missing variant reference for item %q", item.Title)
		}
		if strings.HasPrefix(item.VariantID, shopifyVariantPrefix) {
			return item.VariantID, nil
		}
		if strings.HasPrefix(item.VariantID, legacyVariantPrefix) {
			externalID := strings.TrimPrefix(item.VariantID, legacyVariantPrefix)
			return s.provisionVariant(ctx, item, externalID, unitPrice)
		}
		return "", fmt.Errorf("invalid variant reference for item %q", item.Title)

	case domain.SourceExternal:
		if item.VariantID != "" {
			return item.VariantID, nil
		}
		externalID := item.EffectiveExternalID()
		if externalID == "" {
			return "", fmt.Errorf("missing external id for item %q", item.Title)
		}
		return s.provisionVariant(ctx, item, externalID, unitPrice)

	default:
		return "", fmt.Errorf("unknown source %q for item %q", item.Source, item.Title)
	}
}

func (s *Service) provisionVariant(ctx context.Context, item domain.CartItem, externalID string, unitPrice float64) (string, error) {
	productID, err := s.prov.EnsureProduct(ctx, item.SourceBucket())
	if err != nil {
		return "", fmt.Errorf("prepare placeholder product for item %q: %w", item.Title, err)
	}
	variantID, err := s.prov.EnsureVariant(ctx, productID, externalID, unitPrice, item.Title, item.ImageURL, item.Payload)
	if err != nil {
		return "", fmt.Errorf("prepare variant for item %q: %w", item.Title, err)
	}
	return variantID, nil
}

// buildFromSnapshot trusts a previously rendered view: merchandise IDs and
// prices come straight from the client. That re-trust is the price of
// recovering carts lost to a process restart.
func (s *Service) buildFromSnapshot(view *domain.CartView) (BuildResult, error) {
	if len(view.Lines) == 0 {
		return BuildResult{}, domain.ErrCartEmpty
	}

	currency := view.Cost.TotalAmount.CurrencyCode
	if currency == "" {
		currency = view.Lines[0].Merchandise.Price.CurrencyCode
	}
	if currency == "" {
		currency = "USD"
	}

	var (
		lines []domain.CheckoutLine
		total float64
	)
	for _, line := range view.Lines {
		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}

		unitPrice, err := strconv.ParseFloat(line.Merchandise.Price.Amount, 64)
		if err != nil || unitPrice <= 0 {
			return BuildResult{}, fmt.Errorf("invalid price for item %q", line.Merchandise.Title)
		}
		if line.Merchandise.ID == "" {
			return BuildResult{}, fmt.Errorf("missing merchandise id for item %q", line.Merchandise.Title)
		}

		lines = append(lines, domain.CheckoutLine{
			MerchandiseID: line.Merchandise.ID,
			Quantity:      quantity,
			Attributes:    line.Attributes,
		})
		total += unitPrice * float64(quantity)
	}

	return BuildResult{Lines: lines, TotalAmount: total, CurrencyCode: currency}, nil
}

// Checkout compiles the cart, waits for the compiled variants to become
// visible to the storefront, and creates the platform checkout cart.
func (s *Service) Checkout(ctx context.Context, cartID string, snapshot *domain.CartView) (string, error) {
	build, err := s.BuildLines(ctx, cartID, snapshot)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(build.Lines))
	for _, line := range build.Lines {
		ids = append(ids, line.MerchandiseID)
	}
	unavailable, err := s.waitForAvailability(ctx, ids)
	if err != nil {
		return "", err
	}
	if len(unavailable) > 0 {
		return "", &UnavailableError{MerchandiseIDs: unavailable}
	}

	cart, err := s.storefront.CreateCartWithLines(ctx, build.Lines)
	if err != nil {
		return "", fmt.Errorf("create checkout: %w", err)
	}
	return cart.CheckoutURL, nil
}

// waitForAvailability polls the storefront until every id is available, up
// to the configured attempts with growing delay. Newly provisioned variants
// lag behind the admin API because of the platform's own indexing. A failed
// availability query never blocks checkout; definitive unavailability does.
func (s *Service) waitForAvailability(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := dedupe(ids)

	var unavailable []string
	for attempt := 1; attempt <= s.availabilityAttempts; attempt++ {
		result, err := s.storefront.QueryAvailability(ctx, unique)
		if err != nil {
			s.logger.Printf("availability check failed, proceeding to checkout: %v", err)
			return nil, nil
		}

		unavailable = unavailable[:0]
		for _, a := range result {
			if !a.Available || (a.Quantity != nil && *a.Quantity <= 0) {
				unavailable = append(unavailable, a.ID)
			}
		}
		if len(unavailable) == 0 {
			return nil, nil
		}
		if attempt < s.availabilityAttempts {
			if err := s.sleep(ctx, s.availabilityDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return unavailable, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
