package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttnlsn/sql-critic/internal/store"
	"github.com/scttnlsn/sql-critic/internal/store/memstore"
)

type payload struct {
	A string
	B int
}

func TestStore_Conformance(t *testing.T) {
	store.Conformance(t, memstore.New())
}

func TestStore_PutThenGet(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.Put(ctx, "k1", payload{A: "x", B: 1}))

	var out payload
	ok, err := s.Get(ctx, "k1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{A: "x", B: 1}, out)
}

func TestStore_GetAbsentReportsFalseNotError(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	var out payload
	ok, err := s.Get(ctx, "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.Put(ctx, "k1", payload{A: "x", B: 1}))
	require.NoError(t, s.Put(ctx, "k1", payload{A: "y", B: 2}))

	var out payload
	ok, err := s.Get(ctx, "k1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{A: "y", B: 2}, out)
}

func TestStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Put(ctx, "a/spans", []int{1}))
	require.NoError(t, s.Put(ctx, "a/metadata", []int{2}))

	assert.ElementsMatch(t, []string{"a/spans", "a/metadata"}, s.Keys())
}
