package provision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"diamond-storefront/internal/domain"
	"diamond-storefront/internal/shopify"
)

// AdminAPI is the slice of the platform admin API the provisioner needs.
type AdminAPI interface {
	FindProductByTag(ctx context.Context, tag string) (string, error)
	CreateProduct(ctx context.Context, tag, title string) (string, error)
	EnsurePublished(ctx context.Context, productID string) error
	FindVariantBySKU(ctx context.Context, sku string) (string, error)
	CreateVariant(ctx context.Context, productID string, in shopify.VariantInput) (string, error)
	UpdateVariant(ctx context.Context, productID, variantID string, in shopify.VariantInput) error
	SetVariantInventory(ctx context.Context, variantID string, quantity int) error
	SetVariantPayload(ctx context.Context, variantID string, payload map[string]any) error
}

// Service guarantees that an external item has a resolvable platform variant
// without ever creating a second catalog entry for the same feed item. One
// placeholder product exists per source bucket; under it, one variant per
// external ID, keyed by an EXT-<id> SKU.
type Service struct {
	admin  AdminAPI
	logger *log.Logger
	cache  *memo
}

// New builds a provisioning Service.
func New(admin AdminAPI, logger *log.Logger) *Service {
	return &Service{admin: admin, logger: logger, cache: newMemo()}
}

func placeholderTag(sourceType string) string {
	return "placeholder-" + sourceType
}

// SKUForExternalID is the stable variant SKU for a feed item.
func SKUForExternalID(externalID string) string {
	return "EXT-" + externalID
}

// EnsureProduct returns the placeholder product ID for a source bucket,
// creating it when absent. A product found unpublished is republished rather
// than treated as missing.
func (s *Service) EnsureProduct(ctx context.Context, sourceType string) (string, error) {
	if id, ok := s.cache.product(sourceType); ok {
		return id, nil
	}

	tag := placeholderTag(sourceType)
	id, err := s.admin.FindProductByTag(ctx, tag)
	if err != nil {
		return "", fmt.Errorf("find placeholder product for %s: %w", sourceType, err)
	}
	if id == "" {
		title := fmt.Sprintf("External Items (%s)", sourceType)
		id, err = s.admin.CreateProduct(ctx, tag, title)
		if err != nil {
			return "", fmt.Errorf("create placeholder product for %s: %w", sourceType, err)
		}
	}
	if err := s.admin.EnsurePublished(ctx, id); err != nil {
		return "", fmt.Errorf("publish placeholder product for %s: %w", sourceType, err)
	}

	s.cache.setProduct(sourceType, id)
	return id, nil
}

// EnsureVariant returns the variant ID for externalID under productID,
// creating it on first use. Re-adding the same feed item always resolves to
// the same variant. The variant price is set at creation and synced on later
// hits; the stored payload keeps the item's descriptive data.
func (s *Service) EnsureVariant(ctx context.Context, productID, externalID string, price float64, title, imageURL string, payload map[string]any) (string, error) {
	sku := SKUForExternalID(externalID)
	priceStr := strconv.FormatFloat(price, 'f', 2, 64)
	input := shopify.VariantInput{Price: priceStr, SKU: sku, OptionValue: externalID}
	meta := payloadWithDisplay(payload, title, imageURL)

	// Fast path: a variant provisioned earlier in this process.
	if ref, ok := s.cache.variant(externalID); ok {
		if err := s.admin.UpdateVariant(ctx, ref.productID, ref.variantID, input); err != nil {
			s.logger.Printf("cached variant update failed for %s, re-resolving: %v", externalID, err)
		} else if err := s.activate(ctx, ref.productID, ref.variantID, meta); err != nil {
			return "", fmt.Errorf("activate variant for item %s: %w", externalID, err)
		} else {
			return ref.variantID, nil
		}
	}

	variantID, err := s.admin.FindVariantBySKU(ctx, sku)
	if err != nil {
		return "", fmt.Errorf("look up variant for item %s: %w", externalID, err)
	}

	if variantID != "" {
		if err := s.admin.UpdateVariant(ctx, productID, variantID, input); err != nil {
			return "", fmt.Errorf("update variant for item %s: %w", externalID, err)
		}
	} else {
		variantID, err = s.admin.CreateVariant(ctx, productID, input)
		if errors.Is(err, domain.ErrConflict) {
			// Lost a create race: someone else provisioned this item between
			// our lookup and create. Re-query instead of failing.
			variantID, err = s.retryLookup(ctx, sku, externalID)
		}
		if err != nil {
			return "", fmt.Errorf("create variant for item %s: %w", externalID, err)
		}
	}

	if err := s.activate(ctx, productID, variantID, meta); err != nil {
		return "", fmt.Errorf("activate variant for item %s: %w", externalID, err)
	}

	s.cache.setVariant(externalID, productID, variantID)
	return variantID, nil
}

func (s *Service) retryLookup(ctx context.Context, sku, externalID string) (string, error) {
	variantID, err := s.admin.FindVariantBySKU(ctx, sku)
	if err != nil {
		return "", err
	}
	if variantID == "" {
		return "", fmt.Errorf("variant for item %s reported as existing but not found", externalID)
	}
	return variantID, nil
}

// activate makes a provisioned variant sellable: one unit on hand, the
// product published, and the feed payload attached.
func (s *Service) activate(ctx context.Context, productID, variantID string, payload map[string]any) error {
	if err := s.admin.SetVariantInventory(ctx, variantID, 1); err != nil {
		return err
	}
	if err := s.admin.EnsurePublished(ctx, productID); err != nil {
		return err
	}
	return s.admin.SetVariantPayload(ctx, variantID, payload)
}

func payloadWithDisplay(payload map[string]any, title, imageURL string) map[string]any {
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	if title != "" {
		if _, ok := out["title"]; !ok {
			out["title"] = title
		}
	}
	if imageURL != "" {
		if _, ok := out["image"]; !ok {
			out["image"] = imageURL
		}
	}
	return out
}
