package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conformancePayload struct {
	Name string
	N    int
}

// Conformance exercises the put/get contract every Store implementation
// must satisfy (SPEC_FULL.md §8): round-tripping a value, and reporting a
// miss as (false, nil) rather than an error. memstore runs this suite;
// gcsstore's tests do not (they cover Get and Put's marshal-error path only).
func Conformance(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get round trips", func(t *testing.T) {
		want := conformancePayload{Name: "a", N: 1}
		require.NoError(t, s.Put(ctx, "conformance/roundtrip", want))

		var got conformancePayload
		ok, err := s.Get(ctx, "conformance/roundtrip", &got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("get miss reports false nil", func(t *testing.T) {
		var got conformancePayload
		ok, err := s.Get(ctx, "conformance/never-put", &got)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
