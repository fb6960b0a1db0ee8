// Package analysis implements the stateful span-stream analyzers (N+1,
// sequential scan, missing index) and the pipeline that runs them, per
// spec.md §4.5–§4.6.
package analysis

import (
	"encoding/json"
	"sort"

	"github.com/scttnlsn/sql-critic/internal/fingerprint"
	"github.com/scttnlsn/sql-critic/internal/spanmodel"
)

// Kind identifies the category of antipattern a Finding reports.
type Kind string

const (
	NPlusOne     Kind = "N_PLUS_ONE"
	SeqScan      Kind = "SEQ_SCAN"
	MissingIndex Kind = "MISSING_INDEX"
)

// Finding is a single detected antipattern with its evidence. Identity is
// the Fingerprint: within one analysis run at most one Finding exists per
// fingerprint, additional evidence merges into Tests (and, for
// MissingIndex, Extra).
type Finding struct {
	Kind    Kind
	Queries []string
	Tests   map[spanmodel.Test]bool
	// Extra is kind-specific: for MissingIndex, table_name -> column_names.
	Extra map[string][]string
}

// Fingerprint computes H(kind.name, queries...) as specified in spec.md
// §4.1/§4.4 (Finding identity).
func (f Finding) Fingerprint() string {
	items := make([]string, 0, len(f.Queries)+1)
	items = append(items, string(f.Kind))
	items = append(items, f.Queries...)
	return fingerprint.Of(items...)
}

// SortedTests returns Tests in the total order from spec.md §3.
func (f Finding) SortedTests() []spanmodel.Test {
	tests := make([]spanmodel.Test, 0, len(f.Tests))
	for t := range f.Tests {
		tests = append(tests, t)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].Less(tests[j]) })
	return tests
}

// findingWire is Finding's JSON shape: Tests is a map keyed by a struct,
// which encoding/json cannot encode directly, so it's flattened to the
// sorted slice SortedTests already produces for rendering.
type findingWire struct {
	Kind    Kind                `json:"kind"`
	Queries []string            `json:"queries"`
	Tests   []spanmodel.Test    `json:"tests"`
	Extra   map[string][]string `json:"extra,omitempty"`
}

func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(findingWire{
		Kind:    f.Kind,
		Queries: f.Queries,
		Tests:   f.SortedTests(),
		Extra:   f.Extra,
	})
}

// findingSet accumulates Findings keyed by fingerprint, merging evidence for
// a fingerprint already present. It is the common "upsert" primitive every
// analyzer uses (spec.md §4.5: "insert/update entries in a fingerprint ->
// Finding map").
type findingSet struct {
	byFingerprint map[string]*Finding
	order         []string
}

func newFindingSet() *findingSet {
	return &findingSet{byFingerprint: map[string]*Finding{}}
}

// upsert inserts a new Finding for kind+queries if none exists yet, then
// adds test (if present) to its Tests set and merges extra (if present)
// into its Extra map. Returns the resulting Finding so callers needing the
// fingerprint elsewhere don't recompute it.
func (fs *findingSet) upsert(kind Kind, queries []string, test *spanmodel.Test, extra map[string][]string) *Finding {
	f := Finding{Kind: kind, Queries: queries}
	key := f.Fingerprint()

	existing, ok := fs.byFingerprint[key]
	if !ok {
		existing = &Finding{
			Kind:    kind,
			Queries: queries,
			Tests:   map[spanmodel.Test]bool{},
			Extra:   map[string][]string{},
		}
		fs.byFingerprint[key] = existing
		fs.order = append(fs.order, key)
	}

	if test != nil {
		existing.Tests[*test] = true
	}
	for table, cols := range extra {
		existing.Extra[table] = cols
	}

	return existing
}

// values returns the accumulated Findings in first-upsert order.
func (fs *findingSet) values() []Finding {
	out := make([]Finding, 0, len(fs.order))
	for _, key := range fs.order {
		out = append(out, *fs.byFingerprint[key])
	}
	return out
}
