package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	full := Conflict("event is full")
	wrapped := fmt.Errorf("register: %w", full)

	require.Equal(t, KindConflict, KindOf(wrapped))
	require.True(t, errors.Is(wrapped, full))
	require.Equal(t, KindInternal, KindOf(errors.New("boom")))
	require.Equal(t, KindInternal, KindOf(nil))
}

func TestSentinelsAreDistinct(t *testing.T) {
	a := Conflict("event is full")
	b := Conflict("already registered")

	require.False(t, errors.Is(a, b))
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := Internal("insert registration", errors.New("pq: connection reset"))

	require.Equal(t, "failed to register", PublicMessage(err, "failed to register"))
	require.Equal(t, "not here", PublicMessage(NotFound("not here"), "x"))
	require.ErrorContains(t, err, "connection reset")
}
