package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(errors.New("boom"))
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, ErrInternal.Message, err.Message)
}

func TestCloneKeepsCodeAndStatus(t *testing.T) {
	err := Clone(ErrConflict, "student ID already exists")
	assert.Equal(t, "CONFLICT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "student ID already exists", err.Message)
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestValidationCollectsFieldDetails(t *testing.T) {
	type payload struct {
		Title  string  `validate:"required,min=10"`
		Amount float64 `validate:"gte=1"`
	}
	verr := validator.New().Struct(payload{Title: "short", Amount: 0})
	require.Error(t, verr)

	err := Validation(verr, "invalid campaign payload")
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.Equal(t, "invalid campaign payload", err.Message)
	require.Len(t, err.Details, 2)
	assert.Equal(t, "Title", err.Details[0].Field)
	assert.Equal(t, "must be at least 10 characters", err.Details[0].Message)
	assert.Equal(t, "must be greater than or equal to 1", err.Details[1].Message)
}
