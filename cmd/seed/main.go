package main

import (
	"context"
	"log"
	"os"
	"time"

	"diamond-storefront/internal/config"
	"diamond-storefront/internal/shopify"
)

const depositProductTag = "deposit-product"

// Seeds the store with the product that deposit variants are created under.
// Run once per shop; the tag lookup makes it idempotent. Export the printed ID
// as DEPOSIT_PRODUCT_ID.
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	if cfg.AdminAPIEndpoint == "" || cfg.AdminAPIToken == "" {
		logger.Fatal("SHOPIFY_ADMIN_API_ENDPOINT and SHOPIFY_ADMIN_API_TOKEN are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	admin := shopify.NewAdmin(cfg.AdminAPIEndpoint, cfg.AdminAPIToken, 10*time.Second, logger)

	productID, err := admin.FindProductByTag(ctx, depositProductTag)
	if err != nil {
		logger.Fatalf("look up deposit product: %v", err)
	}
	if productID == "" {
		productID, err = admin.CreateProduct(ctx, depositProductTag, "Order Deposit")
		if err != nil {
			logger.Fatalf("create deposit product: %v", err)
		}
		logger.Printf("created deposit product")
	}
	if err := admin.EnsurePublished(ctx, productID); err != nil {
		logger.Fatalf("publish deposit product: %v", err)
	}

	logger.Printf("deposit product ready: %s", productID)
}
