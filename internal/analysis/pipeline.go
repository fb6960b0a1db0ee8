package analysis

import (
	"time"

	"github.com/scttnlsn/sql-critic/internal/spanmodel"
)

// Analyzer is the common contract from spec.md §4.5: the orchestrator calls
// Visit once per span in forest order, then Finish, and collects the
// Findings accumulated along the way.
type Analyzer interface {
	Visit(span spanmodel.Span)
	Finish()
	Findings() []Finding
	// Name identifies the analyzer for telemetry (SPEC_FULL.md §4.14),
	// independent of the Kind(s) of Finding it produces.
	Name() string
}

// newAnalyzers returns one fresh instance of each analyzer, in the fixed
// declared order the pipeline composes them in (N+1, missing-index,
// sequential-scan — the order the original analyzer list used).
func newAnalyzers(forest *spanmodel.Forest, metadata *Metadata) []Analyzer {
	return []Analyzer{
		newNPlusOneAnalyzer(forest),
		newMissingIndexAnalyzer(forest, metadata),
		newSeqScanAnalyzer(forest, metadata),
	}
}

// Analyze runs every analyzer over forest (optionally informed by metadata)
// in a single declared order and concatenates their outputs — spec.md §4.6.
// It makes no effort to deduplicate across analyzers: identical SQL can
// legitimately produce both a SEQ_SCAN and a MISSING_INDEX finding, since
// Kind is part of the fingerprint.
//
// onAnalyzer, if given, is called once per analyzer with its name and wall
// time (SPEC_FULL.md §4.14's sqlcritic.analyzer.duration); passing it keeps
// this core package free of any telemetry import while still letting the
// driver time each analyzer from outside.
func Analyze(forest *spanmodel.Forest, metadata *Metadata, onAnalyzer ...func(name string, d time.Duration)) []Finding {
	analyzers := newAnalyzers(forest, metadata)

	var findings []Finding
	for _, a := range analyzers {
		start := time.Now()
		for _, span := range forest.Ordered() {
			a.Visit(span)
		}
		a.Finish()
		elapsed := time.Since(start)
		for _, hook := range onAnalyzer {
			hook(a.Name(), elapsed)
		}
		findings = append(findings, a.Findings()...)
	}
	return findings
}
