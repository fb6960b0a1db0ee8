package compare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttnlsn/sql-critic/internal/analysis"
	"github.com/scttnlsn/sql-critic/internal/compare"
	"github.com/scttnlsn/sql-critic/internal/spanmodel"
)

func finding(kind analysis.Kind, queries ...string) analysis.Finding {
	return analysis.Finding{Kind: kind, Queries: queries}
}

// S6: base has F1; head has F1, F2. Only F2 survives, in head order.
func TestNewFindings_S6_SuppressesKnownIssues(t *testing.T) {
	f1 := finding(analysis.SeqScan, "SELECT 1")
	f2 := finding(analysis.NPlusOne, "SELECT 2", "SELECT 3")

	base := []analysis.Finding{f1}
	head := []analysis.Finding{f1, f2}

	got := compare.NewFindings(base, head)
	require.Len(t, got, 1)
	assert.Equal(t, f2.Fingerprint(), got[0].Fingerprint())
}

func TestNewFindings_EmptyBaseYieldsAllOfHead(t *testing.T) {
	f1 := finding(analysis.SeqScan, "SELECT 1")
	f2 := finding(analysis.MissingIndex, "SELECT 2")

	got := compare.NewFindings(nil, []analysis.Finding{f1, f2})
	require.Len(t, got, 2)
	assert.Equal(t, f1.Fingerprint(), got[0].Fingerprint())
	assert.Equal(t, f2.Fingerprint(), got[1].Fingerprint())
}

func TestNewFindings_IdenticalStreamsYieldNothing(t *testing.T) {
	f1 := finding(analysis.SeqScan, "SELECT 1")
	got := compare.NewFindings([]analysis.Finding{f1}, []analysis.Finding{f1})
	assert.Empty(t, got)
}

func TestNewFindings_PreservesHeadOrderNotBaseOrder(t *testing.T) {
	f1 := finding(analysis.SeqScan, "SELECT 1")
	f2 := finding(analysis.SeqScan, "SELECT 2")
	f3 := finding(analysis.SeqScan, "SELECT 3")

	head := []analysis.Finding{f3, f1, f2}
	got := compare.NewFindings(nil, head)

	require.Len(t, got, 3)
	assert.Equal(t, f3.Fingerprint(), got[0].Fingerprint())
	assert.Equal(t, f1.Fingerprint(), got[1].Fingerprint())
	assert.Equal(t, f2.Fingerprint(), got[2].Fingerprint())
}

// A finding that is fingerprint-identical in base and head but carries new
// test witnesses in head must still be suppressed - identity is
// (kind, queries) only.
func TestNewFindings_NewWitnessesDoNotReviveASuppressedFinding(t *testing.T) {
	baseFinding := finding(analysis.NPlusOne, "SELECT a", "SELECT b")

	headFinding := baseFinding
	headFinding.Tests = map[spanmodel.Test]bool{
		{Path: "tests/test_new.py", Line: 1, Name: "test_new"}: true,
	}

	got := compare.NewFindings([]analysis.Finding{baseFinding}, []analysis.Finding{headFinding})
	assert.Empty(t, got)
}
