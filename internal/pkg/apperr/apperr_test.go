package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperr.NotFound("blob.get", "abc"))

	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.False(t, errors.Is(err, apperr.ErrInvalidReference))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStorageErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Storage("blob.put", "", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestValidationListsEveryField(t *testing.T) {
	err := apperr.Validation("content.create",
		apperr.FieldError{Field: "title", Rule: "required"},
		apperr.FieldError{Field: "excerpt", Rule: "max"},
	)

	e, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Len(t, e.Fields, 2)
	assert.Contains(t, err.Error(), "title, excerpt")
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("plain")))
}
