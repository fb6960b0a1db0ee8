// Package compare implements the Comparator (spec.md §4.7): given a base
// and head finding stream, it yields the findings whose fingerprint is new
// in head.
package compare

import (
	"fmt"

	"github.com/scttnlsn/sql-critic/internal/analysis"
)

// MissingBaseError reports that no base analysis exists for sha — the
// driver translates this into a graceful "no baseline yet" skip.
type MissingBaseError struct {
	SHA string
}

func (e *MissingBaseError) Error() string {
	return fmt.Sprintf("no base analysis found for %s", e.SHA)
}

// MissingHeadError reports that no head analysis exists for sha.
type MissingHeadError struct {
	SHA string
}

func (e *MissingHeadError) Error() string {
	return fmt.Sprintf("no head analysis found for %s", e.SHA)
}

// NewFindings fully consumes base, collecting its fingerprint set, then
// streams head and yields every finding whose fingerprint is not in that
// set. Order is preserved from head. tests/extra are not part of identity:
// a finding already seen in base is suppressed even if head attaches new
// witnesses to it (spec.md §4.7).
func NewFindings(base, head []analysis.Finding) []analysis.Finding {
	seen := make(map[string]bool, len(base))
	for _, f := range base {
		seen[f.Fingerprint()] = true
	}

	var out []analysis.Finding
	for _, f := range head {
		if seen[f.Fingerprint()] {
			continue
		}
		out = append(out, f)
	}
	return out
}
