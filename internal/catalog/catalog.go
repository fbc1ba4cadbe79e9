package catalog

import (
	"context"

	"github.com/storefrontlab/cart-service/internal/domain"
)

// ProductCatalog is the read-only port to the product subsystem. The cart
// never writes through it.
//
// GetProduct returns ErrNotFound when the product does not exist (a normal
// outcome, not a fault) and ErrCatalogUnavailable when the lookup could not
// be completed at all.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*domain.ProductSnapshot, error)
}
