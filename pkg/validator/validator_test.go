package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	UserID    string `validate:"required"`
	ProductID string `validate:"required"`
	Quantity  int    `validate:"required,gte=1"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(addRequest{UserID: "u-1", ProductID: "p-1", Quantity: 2})
	assert.NoError(t, err)
}

func TestValidate_MissingFields(t *testing.T) {
	err := Validate(addRequest{Quantity: 1})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := verr.Fields()
	assert.Equal(t, "is required", fields["UserID"])
	assert.Equal(t, "is required", fields["ProductID"])
	assert.NotContains(t, fields, "Quantity")
}

func TestValidate_QuantityFloor(t *testing.T) {
	err := Validate(addRequest{UserID: "u-1", ProductID: "p-1", Quantity: -3})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Error(), "Quantity")
	assert.Contains(t, verr.Fields()["Quantity"], "greater than or equal to 1")
}
