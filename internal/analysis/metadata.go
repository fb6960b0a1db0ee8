package analysis

import "github.com/scttnlsn/sql-critic/internal/indexcat"

// PlanNode is a single node of a Postgres EXPLAIN (FORMAT JSON) plan tree.
// It is kept as a generic map rather than a fixed struct because a plan
// node carries many fields this engine never inspects (costs, row
// estimates, ...) and, per spec.md §7, an unrecognized "Node Type" is not
// an error — the walker only cares about "Node Type" and "Plans".
type PlanNode map[string]any

// NodeType returns the node's "Node Type" field ("Seq Scan", "Index Scan",
// ...).
func (n PlanNode) NodeType() string {
	s, _ := n["Node Type"].(string)
	return s
}

// SubPlans returns the node's child plans, if any.
func (n PlanNode) SubPlans() []PlanNode {
	raw, _ := n["Plans"].([]any)
	out := make([]PlanNode, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			out = append(out, PlanNode(m))
		}
	}
	return out
}

// ExplainDocument is the top-level shape of one EXPLAIN result: {"Plan": node}.
type ExplainDocument map[string]any

// Plan returns the document's root plan node.
func (d ExplainDocument) Plan() PlanNode {
	m, _ := d["Plan"].(map[string]any)
	return PlanNode(m)
}

// Metadata is the optional per-run context consumed by analyzers beyond the
// span stream itself (spec.md §6, "Metadata schema").
type Metadata struct {
	// Explained maps SQL text to its EXPLAIN plan document.
	Explained map[string]ExplainDocument
	// Indexes is the known index catalog.
	Indexes indexcat.Catalog
}
