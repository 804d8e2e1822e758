package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindNotFound, "table proj.ds.t not found")
	assert.Equal(t, "not_found: table proj.ds.t not found", err.Error())

	wrapped := Wrap(KindGenerationFailure, "inference failed", errors.New("503 service unavailable"))
	assert.Contains(t, wrapped.Error(), "generation_failure")
	assert.Contains(t, wrapped.Error(), "503 service unavailable")
}

func TestKindOfUnwrapsChain(t *testing.T) {
	inner := Wrap(KindPartialPersistence, "catalog write failed", errors.New("timeout"))
	outer := fmt.Errorf("accept table: %w", inner)

	assert.Equal(t, KindPartialPersistence, KindOf(outer))
	assert.True(t, IsKind(outer, KindPartialPersistence))
	assert.False(t, IsKind(outer, KindNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindContextUnavailable, "profile fetch", cause)
	require.ErrorIs(t, err, cause)
}
