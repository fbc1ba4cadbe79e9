package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storefrontlab/cart-service/internal/catalog"
	"github.com/storefrontlab/cart-service/internal/domain"
	"github.com/storefrontlab/cart-service/internal/repository"
	apperrors "github.com/storefrontlab/cart-service/pkg/errors"
)

// MaxQuantityPerLine caps the quantity of a single cart line to prevent abuse.
const MaxQuantityPerLine = 1000

// EventPublisher emits cart domain events. Publish failures are logged and
// never fail the cart operation; the store is the source of truth.
type EventPublisher interface {
	PublishItemAdded(ctx context.Context, line *domain.CartLine) error
	PublishItemUpdated(ctx context.Context, line *domain.CartLine) error
	PublishItemRemoved(ctx context.Context, lineID string) error
}

// CartService implements the cart business rules: merge-on-add, quantity
// clamping, idempotent removal, and product snapshot embedding. It is the
// only component callers interact with.
type CartService struct {
	store    repository.CartStore
	catalog  catalog.ProductCatalog
	producer EventPublisher
	logger   *slog.Logger
}

// NewCartService creates a cart service.
func NewCartService(store repository.CartStore, cat catalog.ProductCatalog, producer EventPublisher, logger *slog.Logger) *CartService {
	return &CartService{
		store:    store,
		catalog:  cat,
		producer: producer,
		logger:   logger,
	}
}

// ListCart returns a view for every cart line of the user. A line whose
// product lookup fails carries a nil product instead of failing the list:
// a broken or missing catalog entry must never hide the line itself.
func (s *CartService) ListCart(ctx context.Context, userID string) ([]domain.CartView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	lines, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	views := make([]domain.CartView, 0, len(lines))
	for _, line := range lines {
		views = append(views, domain.NewCartView(line, s.resolveSnapshot(ctx, line.ProductID)))
	}

	return views, nil
}

// AddItem merges quantity into the user's existing line for the product, or
// creates the line if none exists. The upsert runs as one atomic statement in
// the store, so concurrent adds for the same pair cannot produce duplicate
// lines or lost increments.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartView, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	line, err := s.store.UpsertQuantityDelta(ctx, userID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	if err := s.producer.PublishItemAdded(ctx, line); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item_added event",
			slog.String("line_id", line.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
		slog.Int("line_quantity", line.Quantity),
	)

	view := domain.NewCartView(*line, s.resolveSnapshot(ctx, line.ProductID))
	return &view, nil
}

// UpdateQuantity replaces the stored quantity of the line, flooring any
// requested value below 1 to 1. Unlike the read path, an unexpected catalog
// failure here fails the whole operation: the caller asked for this one line
// and a partial answer would mask a catalog-layer fault.
func (s *CartService) UpdateQuantity(ctx context.Context, lineID string, quantity int) (*domain.CartView, error) {
	if lineID == "" {
		return nil, apperrors.InvalidInput("cart line id is required")
	}

	// Requested values below the floor are clamped, never rejected.
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	line, err := s.store.SetQuantity(ctx, lineID, quantity)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishItemUpdated(ctx, line); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item_updated event",
			slog.String("line_id", line.ID),
			slog.String("error", err.Error()),
		)
	}

	snapshot, err := s.catalog.GetProduct(ctx, line.ProductID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.ErrorContext(ctx, "catalog lookup failed after quantity update",
			slog.String("line_id", line.ID),
			slog.String("product_id", line.ProductID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.TransformFailed(err)
	}

	s.logger.InfoContext(ctx, "cart line quantity updated",
		slog.String("line_id", line.ID),
		slog.Int("quantity", line.Quantity),
	)

	view := domain.NewCartView(*line, snapshot)
	return &view, nil
}

// RemoveItem deletes the line. Removal reports success whether or not the
// line existed, so retried deletes are harmless.
func (s *CartService) RemoveItem(ctx context.Context, lineID string) error {
	if lineID == "" {
		return apperrors.InvalidInput("cart line id is required")
	}

	if err := s.store.Delete(ctx, lineID); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	if err := s.producer.PublishItemRemoved(ctx, lineID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item_removed event",
			slog.String("line_id", lineID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart line removed", slog.String("line_id", lineID))

	return nil
}

// resolveSnapshot fetches the product snapshot for read paths that degrade
// gracefully. Both "product not found" and an unreachable catalog yield nil.
func (s *CartService) resolveSnapshot(ctx context.Context, productID string) *domain.ProductSnapshot {
	snapshot, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.DebugContext(ctx, "product no longer in catalog",
				slog.String("product_id", productID),
			)
		} else {
			s.logger.WarnContext(ctx, "catalog lookup failed, returning line without product",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return snapshot
}
