package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("update user: %w", NewPersistenceError("update", cause))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrorNotFound)

	var pe *PersistenceError
	if assert.ErrorAs(t, err, &pe) {
		assert.Equal(t, "update", pe.Op)
	}
	assert.Equal(t, "update user: update: connection reset", err.Error())
}
