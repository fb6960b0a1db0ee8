// Package render formats a Finding stream as the Markdown PR comment body
// described in spec.md §6 (SPEC_FULL.md §4.12).
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scttnlsn/sql-critic/internal/analysis"
)

// CommentMarker is the HTML marker appended to every rendered comment so the
// GitHub collaborator (G4) can find and edit its own prior comment.
const CommentMarker = "<!--- comment made by sqlcritic --->"

const attribution = "*Comment made by [sql-critic](https://github.com/scttnlsn/sql-critic)*"

// Comment renders findings into the full PR comment body: a header naming
// head/base commits, one section per finding in input order, and a trailing
// attribution line followed by CommentMarker.
func Comment(headSHA, baseSHA string, findings []analysis.Finding) string {
	var lines []string

	lines = append(lines, header(headSHA, baseSHA), "")

	if len(findings) == 0 {
		lines = append(lines, "No issues detected!", "", "---")
	} else {
		for _, f := range findings {
			lines = append(lines, section(f)...)
			lines = append(lines, "---")
		}
	}

	lines = append(lines, attribution, "", CommentMarker)

	return strings.Join(lines, "\n")
}

func header(headSHA, baseSHA string) string {
	return fmt.Sprintf("## sql-critic: %s vs %s", shorten(headSHA), shorten(baseSHA))
}

func shorten(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func section(f analysis.Finding) []string {
	var lines []string

	switch f.Kind {
	case analysis.NPlusOne:
		lines = append(lines,
			"**Potential N+1 query detected**",
			"```sql",
			"--- source query",
			f.Queries[0],
			"--- N query",
			f.Queries[1],
			"```",
		)
	case analysis.SeqScan:
		lines = append(lines,
			"**Potential sequential scan detected**",
			"```sql",
			f.Queries[0],
			"```",
		)
	case analysis.MissingIndex:
		lines = append(lines,
			"**Potential missing index detected**",
			"```sql",
			f.Queries[0],
			"```",
		)
		for _, table := range sortedExtraTables(f.Extra) {
			cols := f.Extra[table]
			lines = append(lines, fmt.Sprintf("No index on %s for columns: (%s)", table, strings.Join(cols, ", ")))
		}
	}

	lines = append(lines, testLines(f)...)
	return lines
}

func sortedExtraTables(extra map[string][]string) []string {
	tables := make([]string, 0, len(extra))
	for t := range extra {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

func testLines(f analysis.Finding) []string {
	tests := f.SortedTests()
	if len(tests) == 0 {
		return nil
	}

	lines := []string{"<details>", "<summary>Executed from</summary>", ""}
	for _, test := range tests {
		lines = append(lines, fmt.Sprintf("* `%s::%s` (line %d)", test.Path, test.Name, test.Line))
	}
	lines = append(lines, "", "</details>")
	return lines
}
