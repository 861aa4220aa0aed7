package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryErrorFormat(t *testing.T) {
	err := NewMemoryError("Extract", ErrExtractionUnavailable)
	assert.Equal(t, "memvault: Extract: extraction unavailable", err.Error())
}

func TestMemoryErrorUnwrap(t *testing.T) {
	err := NewMemoryError("Get", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	var memErr *MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, "Get", memErr.Op)
}
