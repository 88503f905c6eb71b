package fulfillment

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/lyrion-studio/lyrion-api/routing"
)

// StoreCatalog is the read side of the Printful store API.
type StoreCatalog interface {
	ListStoreProducts(ctx context.Context) ([]StoreProduct, error)
	GetStoreProduct(ctx context.Context, id int64) (*StoreProductDetail, error)
}

// RoutingEntries builds one routing entry per synced store product. The
// product's external id is the storefront SKU; each sync variant is keyed by
// its size and the first variant is the default. Products without an
// external id cannot be matched to the catalog and are skipped.
func RoutingEntries(ctx context.Context, store StoreCatalog) ([]routing.Entry, error) {
	products, err := store.ListStoreProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}

	entries := make([]routing.Entry, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.ExternalID) == "" {
			log.Printf("⚠️ Printful product %d (%s) has no external id, skipping", p.ID, p.Name)
			continue
		}
		detail, err := store.GetStoreProduct(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("get store product %d: %w", p.ID, err)
		}

		entry := routing.Entry{
			SKU:      strings.ToUpper(strings.TrimSpace(p.ExternalID)),
			Provider: routing.ProviderPrintful,
			Variants: make(map[string]routing.VariantID),
		}
		for _, v := range detail.SyncVariants {
			id := routing.VariantID(strconv.FormatInt(v.ID, 10))
			if entry.DefaultVariant == "" {
				entry.DefaultVariant = id
			}
			if size := strings.TrimSpace(v.Size); size != "" {
				if _, seen := entry.Variants[size]; !seen {
					entry.Variants[size] = id
				}
			}
		}
		if entry.DefaultVariant == "" {
			log.Printf("⚠️ Printful product %s has no sync variants, skipping", entry.SKU)
			continue
		}
		if len(entry.Variants) == 0 {
			entry.Variants = nil
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
