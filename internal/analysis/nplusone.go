package analysis

import "github.com/scttnlsn/sql-critic/internal/spanmodel"

// nPlusOneAnalyzer detects a source SELECT followed, under the same parent
// span, by a run of >=2 additional SELECTs identical to each other but
// different from the source — spec.md §4.5.1.
type nPlusOneAnalyzer struct {
	forest *spanmodel.Forest
	found  *findingSet

	sourceSpan *spanmodel.Span
	sourceSQL  string
	nSpans     []spanmodel.Span
	nSQL       string
}

func newNPlusOneAnalyzer(forest *spanmodel.Forest) *nPlusOneAnalyzer {
	return &nPlusOneAnalyzer{forest: forest, found: newFindingSet()}
}

func (a *nPlusOneAnalyzer) Visit(span spanmodel.Span) {
	if span.Kind() != spanmodel.DB || span.Name != "SELECT" || !span.HasParent {
		return
	}
	sql, ok := span.SQL()
	if !ok {
		return
	}

	if a.sourceSpan == nil {
		// Searching for the N+1 - maybe this span is the source that
		// triggers it.
		a.reset(span, sql)
		return
	}

	if span.ParentID != a.sourceSpan.ParentID {
		// New parent: whatever run we were tracking is over.
		a.reset(span, sql)
		return
	}

	if sql == a.sourceSQL {
		// Consecutive identical siblings collapse to a new source - not
		// an N+1 of themselves.
		a.reset(span, sql)
		return
	}

	if a.nSQL == "" || sql == a.nSQL {
		a.nSQL = sql
		a.nSpans = append(a.nSpans, span)
		return
	}

	// A third distinct sibling SELECT: the run we were tracking wasn't
	// homogeneous, so it doesn't qualify; this span becomes the new source.
	a.reset(span, sql)
}

func (a *nPlusOneAnalyzer) Finish() {
	a.saveIfQualifying()
}

func (a *nPlusOneAnalyzer) Findings() []Finding {
	return a.found.values()
}

func (a *nPlusOneAnalyzer) Name() string { return "n_plus_one" }

// reset saves the run in progress (if it qualifies), then starts tracking
// span as the new candidate source.
func (a *nPlusOneAnalyzer) reset(span spanmodel.Span, sql string) {
	a.saveIfQualifying()
	spanCopy := span
	a.sourceSpan = &spanCopy
	a.sourceSQL = sql
	a.nSpans = nil
	a.nSQL = ""
}

// saveIfQualifying upserts a Finding when the run tracked >=2 homogeneous
// sibling SELECTs after the source.
func (a *nPlusOneAnalyzer) saveIfQualifying() {
	if len(a.nSpans) < 2 {
		return
	}
	var test *spanmodel.Test
	if t, ok := a.forest.EnclosingTest(*a.sourceSpan); ok {
		test = &t
	}
	a.found.upsert(NPlusOne, []string{a.sourceSQL, a.nSQL}, test, nil)
}
