package analysis

import (
	"github.com/scttnlsn/sql-critic/internal/indexcat"
	"github.com/scttnlsn/sql-critic/internal/sqlnorm"
	"github.com/scttnlsn/sql-critic/internal/spanmodel"
)

// missingIndexAnalyzer flags SELECTs, executed from a test, whose WHERE
// clause references a (table, columns) combination no known index covers
// as a leading prefix — spec.md §4.5.3. It is a no-op when metadata or
// metadata.Indexes is absent.
type missingIndexAnalyzer struct {
	forest  *spanmodel.Forest
	indexes indexcat.Catalog
	enabled bool
	found   *findingSet
}

func newMissingIndexAnalyzer(forest *spanmodel.Forest, metadata *Metadata) *missingIndexAnalyzer {
	a := &missingIndexAnalyzer{forest: forest, found: newFindingSet()}
	if metadata != nil && metadata.Indexes != nil {
		a.indexes = metadata.Indexes
		a.enabled = true
	}
	return a
}

func (a *missingIndexAnalyzer) Visit(span spanmodel.Span) {
	if !a.enabled {
		return
	}
	if span.Kind() != spanmodel.DB || span.Name != "SELECT" {
		return
	}

	test, ok := a.forest.EnclosingTest(span)
	if !ok {
		return
	}

	sql, ok := span.SQL()
	if !ok {
		return
	}

	rewritten := sqlnorm.RewritePlaceholders(sql)
	byTable, err := sqlnorm.ExtractWhereColumns(rewritten)
	if err != nil {
		// Unparseable SQL is swallowed per spec.md §7: this span
		// contributes nothing, it must not sink the run.
		return
	}

	aliases, err := sqlnorm.TableAliases(rewritten)
	if err != nil {
		aliases = nil
	}

	for table, columns := range byTable {
		if a.indexes.Matches(table, columns, aliases) {
			continue
		}
		a.found.upsert(MissingIndex, []string{sql}, &test, map[string][]string{table: columns})
	}
}

func (a *missingIndexAnalyzer) Finish() {}

func (a *missingIndexAnalyzer) Findings() []Finding {
	return a.found.values()
}

func (a *missingIndexAnalyzer) Name() string { return "missing_index" }
