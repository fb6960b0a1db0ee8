package analysis

import "github.com/scttnlsn/sql-critic/internal/spanmodel"

// seqScanAnalyzer detects a DB span whose EXPLAIN plan contains a Seq Scan
// node anywhere in the plan tree — spec.md §4.5.2. It is a no-op when
// metadata or metadata.Explained is absent.
type seqScanAnalyzer struct {
	forest   *spanmodel.Forest
	explains map[string]ExplainDocument
	found    *findingSet
}

func newSeqScanAnalyzer(forest *spanmodel.Forest, metadata *Metadata) *seqScanAnalyzer {
	a := &seqScanAnalyzer{forest: forest, found: newFindingSet()}
	if metadata != nil {
		a.explains = metadata.Explained
	}
	return a
}

func (a *seqScanAnalyzer) Visit(span spanmodel.Span) {
	if a.explains == nil {
		return
	}
	if span.Kind() != spanmodel.DB {
		return
	}
	sql, ok := span.SQL()
	if !ok {
		return
	}
	doc, ok := a.explains[sql]
	if !ok {
		return
	}
	if !containsSeqScan(doc.Plan()) {
		return
	}

	var test *spanmodel.Test
	if t, ok := a.forest.EnclosingTest(span); ok {
		test = &t
	}
	a.found.upsert(SeqScan, []string{sql}, test, nil)
}

func (a *seqScanAnalyzer) Finish() {}

func (a *seqScanAnalyzer) Findings() []Finding {
	return a.found.values()
}

func (a *seqScanAnalyzer) Name() string { return "seq_scan" }

// containsSeqScan recurses into a plan node's Plans; an unrecognized
// Node Type is never an error (spec.md §7) — the walker just keeps looking.
func containsSeqScan(node PlanNode) bool {
	if node.NodeType() == "Seq Scan" {
		return true
	}
	for _, sub := range node.SubPlans() {
		if containsSeqScan(sub) {
			return true
		}
	}
	return false
}
