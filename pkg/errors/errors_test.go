package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesPredefinedByCode(t *testing.T) {
	cause := fmt.Errorf("no rows returned")
	err := Wrap(cause, ErrPersistenceFailed.Code, ErrPersistenceFailed.Status, "upsert returned nothing")

	assert.True(t, errors.Is(err, ErrPersistenceFailed))
	assert.False(t, errors.Is(err, ErrInternal))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upsert returned nothing: no rows returned", err.Error())
}

func TestCloneKeepsCode(t *testing.T) {
	err := Clone(ErrValidation, "student id required")
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "student id required", err.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	err := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Nil(t, FromError(nil))

	typed := Clone(ErrNotFound, "")
	assert.Same(t, typed, FromError(fmt.Errorf("lookup: %w", typed)))
}
