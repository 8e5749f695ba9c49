package service

import (
	"errors"
	"testing"

	"lab-maintenance-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError(nil, "unused"))

	typed := apperr.NotFound("computer %d not found", 4)
	assert.Same(t, typed, storeError(typed, "failed to load computer"))

	raw := errors.New("disk full")
	err := storeError(raw, "failed at 100% capacity")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "failed at 100% capacity", apperr.Message(err))
	assert.ErrorIs(t, err, raw)
}
