package repository

import (
	"context"

	"github.com/storefrontlab/cart-service/internal/domain"
)

// CartStore is the persistence port for cart lines. It carries no business
// rules beyond what the schema enforces; merge-on-add and quantity clamping
// live in the service layer.
type CartStore interface {
	// FindByUser returns all cart lines for the user in insertion order.
	FindByUser(ctx context.Context, userID string) ([]domain.CartLine, error)

	// FindByUserAndProduct returns the line for the pair, or ErrNotFound.
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*domain.CartLine, error)

	// FindByID returns the line with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.CartLine, error)

	// Create inserts a new line. Fails with ErrInvalidInput when quantity < 1.
	Create(ctx context.Context, userID, productID string, quantity int) (*domain.CartLine, error)

	// SetQuantity replaces the stored quantity. Fails with ErrNotFound when
	// the id is unknown.
	SetQuantity(ctx context.Context, id string, quantity int) (*domain.CartLine, error)

	// Delete removes the line. Succeeds even when the id does not exist.
	Delete(ctx context.Context, id string) error

	// UpsertQuantityDelta atomically creates the line with quantity = delta,
	// or increments the existing line's quantity by delta. Concurrent calls
	// for the same (user, product) pair are linearized by the store.
	UpsertQuantityDelta(ctx context.Context, userID, productID string, delta int) (*domain.CartLine, error)
}
