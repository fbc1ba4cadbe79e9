package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/storefrontlab/cart-service/internal/domain"
	apperrors "github.com/storefrontlab/cart-service/pkg/errors"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CartLineRepository implements repository.CartStore using PostgreSQL.
type CartLineRepository struct {
	db DB
}

// NewCartLineRepository creates a PostgreSQL-backed cart line store.
func NewCartLineRepository(db DB) *CartLineRepository {
	return &CartLineRepository{db: db}
}

const cartLineColumns = "id, user_id, product_id, quantity, created_at, updated_at"

// FindByUser returns all cart lines for the user, oldest first.
func (r *CartLineRepository) FindByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("find cart lines by user: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := scanCartLine(rows, &line); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

// FindByUserAndProduct returns the single line for the pair, if any.
func (r *CartLineRepository) FindByUserAndProduct(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE user_id = $1 AND product_id = $2`

	var line domain.CartLine
	if err := scanCartLine(r.db.QueryRow(ctx, query, userID, productID), &line); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart line", userID+"/"+productID)
		}
		return nil, fmt.Errorf("find cart line by user and product: %w", err)
	}

	return &line, nil
}

// FindByID returns the line with the given id.
func (r *CartLineRepository) FindByID(ctx context.Context, id string) (*domain.CartLine, error) {
	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE id = $1`

	var line domain.CartLine
	if err := scanCartLine(r.db.QueryRow(ctx, query, id), &line); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart line", id)
		}
		return nil, fmt.Errorf("find cart line by id: %w", err)
	}

	return &line, nil
}

// Create inserts a new line with a generated id.
func (r *CartLineRepository) Create(ctx context.Context, userID, productID string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	query := `
		INSERT INTO cart_lines (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + cartLineColumns

	var line domain.CartLine
	if err := scanCartLine(r.db.QueryRow(ctx, query, uuid.New().String(), userID, productID, quantity), &line); err != nil {
		return nil, fmt.Errorf("create cart line: %w", err)
	}

	return &line, nil
}

// SetQuantity replaces the stored quantity for the line.
func (r *CartLineRepository) SetQuantity(ctx context.Context, id string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	query := `
		UPDATE cart_lines
		SET quantity = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + cartLineColumns

	var line domain.CartLine
	if err := scanCartLine(r.db.QueryRow(ctx, query, id, quantity), &line); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart line", id)
		}
		return nil, fmt.Errorf("set cart line quantity: %w", err)
	}

	return &line, nil
}

// Delete removes the line. Deleting an unknown id is not an error.
func (r *CartLineRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

// UpsertQuantityDelta inserts the line or accumulates delta onto the existing
// quantity in a single statement. The ON CONFLICT arbitration on the
// (user_id, product_id) unique constraint makes concurrent adds for the same
// pair serialize on the row, so the final quantity is the sum of all deltas
// and no duplicate line can appear.
func (r *CartLineRepository) UpsertQuantityDelta(ctx context.Context, userID, productID string, delta int) (*domain.CartLine, error) {
	if delta < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	query := `
		INSERT INTO cart_lines (id, user_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING ` + cartLineColumns

	var line domain.CartLine
	if err := scanCartLine(r.db.QueryRow(ctx, query, uuid.New().String(), userID, productID, delta), &line); err != nil {
		return nil, fmt.Errorf("upsert cart line quantity: %w", err)
	}

	return &line, nil
}

func scanCartLine(row pgx.Row, line *domain.CartLine) error {
	return row.Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
}
