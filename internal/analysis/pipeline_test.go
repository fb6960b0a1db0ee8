package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttnlsn/sql-critic/internal/indexcat"
)

// Exercises all three analyzers together over one forest and confirms the
// declared N+1, missing-index, seq-scan ordering (spec.md §4.6) plus
// universal invariant #2: a finding contributed by more than one span
// merges into a single entry keyed by fingerprint.
func TestAnalyze_AllAnalyzersTogether(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	test := testSpan("t", "", "tests/test_entries.py", 9, "test_entries", base)
	source := dbSpan("src", "t", sourceSQL, base.Add(time.Millisecond))
	n1 := dbSpan("n1", "t", repeatSQL, base.Add(2*time.Millisecond))
	n2 := dbSpan("n2", "t", repeatSQL, base.Add(3*time.Millisecond))
	n3 := dbSpan("n3", "t", repeatSQL, base.Add(4*time.Millisecond))

	seqSQL := `SELECT * FROM demo_comment`
	seqSpan := dbSpan("seq", "t", seqSQL, base.Add(5*time.Millisecond))

	missingSQL := `SELECT * FROM "demo_tag" WHERE "demo_tag"."slug" = %s`
	missingSpan := dbSpan("missing", "t", missingSQL, base.Add(6*time.Millisecond))

	forest := buildForest(t, test, source, n1, n2, n3, seqSpan, missingSpan)

	metadata := &Metadata{
		Explained: map[string]ExplainDocument{
			seqSQL: {"Plan": map[string]any{"Node Type": "Seq Scan", "Relation Name": "demo_comment"}},
		},
		Indexes: indexcat.Catalog{
			{TableName: "demo_tag", Columns: []string{"id"}},
		},
	}

	findings := Analyze(forest, metadata)
	// repeatSQL filters demo_author, which has no index here, so its three
	// spans merge into one MISSING_INDEX finding ahead of missingSQL's.
	require.Len(t, findings, 4)

	assert.Equal(t, NPlusOne, findings[0].Kind)
	assert.Equal(t, MissingIndex, findings[1].Kind)
	assert.Equal(t, []string{repeatSQL}, findings[1].Queries)
	assert.Equal(t, MissingIndex, findings[2].Kind)
	assert.Equal(t, []string{missingSQL}, findings[2].Queries)
	assert.Equal(t, SeqScan, findings[3].Kind)
}

func TestAnalyze_EmptyForestProducesNoFindings(t *testing.T) {
	forest := buildForest(t)
	assert.Empty(t, Analyze(forest, nil))
}

// The optional onAnalyzer hook is how the driver times each analyzer
// (SPEC_FULL.md §4.14) without this package importing telemetry.
func TestAnalyze_OnAnalyzerHookSeesEveryAnalyzerOnce(t *testing.T) {
	forest := buildForest(t)

	var names []string
	Analyze(forest, nil, func(name string, d time.Duration) {
		names = append(names, name)
	})

	assert.Equal(t, []string{"n_plus_one", "missing_index", "seq_scan"}, names)
}
