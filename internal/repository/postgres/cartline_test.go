package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storefrontlab/cart-service/pkg/errors"
)

func newTestFixture(t *testing.T) (*CartLineRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewCartLineRepository(mock), mock
}

func lineRows(t *testing.T) *pgxmock.Rows {
	t.Helper()
	return pgxmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "created_at", "updated_at"})
}

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// FindByUser
// ---------------------------------------------------------------------------

func TestFindByUser_ReturnsLines(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	rows := lineRows(t).
		AddRow("line-1", "user-7", "prod-3", 2, testTime, testTime).
		AddRow("line-2", "user-7", "prod-9", 1, testTime, testTime)
	mock.ExpectQuery("SELECT (.+) FROM cart_lines WHERE user_id =").
		WithArgs("user-7").
		WillReturnRows(rows)

	lines, err := repo.FindByUser(context.Background(), "user-7")

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "prod-3", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUser_EmptyCartIsNotAnError(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM cart_lines WHERE user_id =").
		WithArgs("user-lonely").
		WillReturnRows(lineRows(t))

	lines, err := repo.FindByUser(context.Background(), "user-lonely")

	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// FindByID / FindByUserAndProduct
// ---------------------------------------------------------------------------

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM cart_lines WHERE id =").
		WithArgs("line-missing").
		WillReturnError(pgx.ErrNoRows)

	line, err := repo.FindByID(context.Background(), "line-missing")

	assert.Nil(t, line)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUserAndProduct_Found(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM cart_lines WHERE user_id = (.+) AND product_id =").
		WithArgs("user-7", "prod-3").
		WillReturnRows(lineRows(t).AddRow("line-1", "user-7", "prod-3", 4, testTime, testTime))

	line, err := repo.FindByUserAndProduct(context.Background(), "user-7", "prod-3")

	require.NoError(t, err)
	assert.Equal(t, "line-1", line.ID)
	assert.Equal(t, 4, line.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_GeneratesID(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO cart_lines").
		WithArgs(pgxmock.AnyArg(), "user-7", "prod-3", 2).
		WillReturnRows(lineRows(t).AddRow("line-1", "user-7", "prod-3", 2, testTime, testTime))

	line, err := repo.Create(context.Background(), "user-7", "prod-3", 2)

	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsNonPositiveQuantity(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	for _, qty := range []int{0, -1, -50} {
		line, err := repo.Create(context.Background(), "user-7", "prod-3", qty)
		assert.Nil(t, line)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput), "quantity %d", qty)
	}
	// No SQL must be issued for rejected input.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// SetQuantity
// ---------------------------------------------------------------------------

func TestSetQuantity_Success(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE cart_lines SET quantity =").
		WithArgs("line-1", 7).
		WillReturnRows(lineRows(t).AddRow("line-1", "user-7", "prod-3", 7, testTime, testTime))

	line, err := repo.SetQuantity(context.Background(), "line-1", 7)

	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetQuantity_UnknownID(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE cart_lines SET quantity =").
		WithArgs("line-999", 3).
		WillReturnError(pgx.ErrNoRows)

	line, err := repo.SetQuantity(context.Background(), "line-999", 3)

	assert.Nil(t, line)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_Success(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM cart_lines WHERE id =").
		WithArgs("line-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), "line-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_UnknownIDIsIdempotent(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM cart_lines WHERE id =").
		WithArgs("line-gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, repo.Delete(context.Background(), "line-gone"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// UpsertQuantityDelta
// ---------------------------------------------------------------------------

func TestUpsertQuantityDelta_NewLine(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO cart_lines (.+) ON CONFLICT \\(user_id, product_id\\)").
		WithArgs(pgxmock.AnyArg(), "user-7", "prod-3", 2).
		WillReturnRows(lineRows(t).AddRow("line-1", "user-7", "prod-3", 2, testTime, testTime))

	line, err := repo.UpsertQuantityDelta(context.Background(), "user-7", "prod-3", 2)

	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertQuantityDelta_MergesIntoExistingLine(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	// Existing row had quantity 2; the statement returns the merged value.
	mock.ExpectQuery("INSERT INTO cart_lines (.+) ON CONFLICT \\(user_id, product_id\\)").
		WithArgs(pgxmock.AnyArg(), "user-7", "prod-3", 5).
		WillReturnRows(lineRows(t).AddRow("line-1", "user-7", "prod-3", 7, testTime, testTime))

	line, err := repo.UpsertQuantityDelta(context.Background(), "user-7", "prod-3", 5)

	require.NoError(t, err)
	assert.Equal(t, "line-1", line.ID)
	assert.Equal(t, 7, line.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertQuantityDelta_RejectsNonPositiveDelta(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	line, err := repo.UpsertQuantityDelta(context.Background(), "user-7", "prod-3", 0)

	assert.Nil(t, line)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertQuantityDelta_DatabaseError(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO cart_lines (.+) ON CONFLICT \\(user_id, product_id\\)").
		WithArgs(pgxmock.AnyArg(), "user-7", "prod-3", 1).
		WillReturnError(errors.New("connection refused"))

	line, err := repo.UpsertQuantityDelta(context.Background(), "user-7", "prod-3", 1)

	assert.Nil(t, line)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert cart line quantity")
	assert.NoError(t, mock.ExpectationsWereMet())
}
