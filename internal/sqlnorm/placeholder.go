// Package sqlnorm normalizes driver-style SQL placeholders into positional
// form and extracts the table/column shape of a query's WHERE clause for
// the missing-index analyzer. Both are specified in spec.md §4.3; this file
// is the "centralize it" half of §9's design note — collaborators outside
// the core (the EXPLAIN helper in internal/explain) import RewritePlaceholders
// rather than re-implementing it.
package sqlnorm

import (
	"strconv"
	"strings"
)

const placeholderToken = "%s"

// RewritePlaceholders rewrites the k-th (1-based, left-to-right) occurrence
// of the literal token "%s" to "$k". A query with n placeholder tokens
// ends up with tokens $1..$n.
func RewritePlaceholders(sql string) string {
	var b strings.Builder
	n := 0
	rest := sql
	for {
		idx := strings.Index(rest, placeholderToken)
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		n++
		b.WriteString(rest[:idx])
		b.WriteString("$")
		b.WriteString(strconv.Itoa(n))
		rest = rest[idx+len(placeholderToken):]
	}
	return b.String()
}
