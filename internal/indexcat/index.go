// Package indexcat models a database's index catalog and decides whether a
// candidate (table, columns) pair is covered by some known index as a
// leading prefix, per spec.md §4.4.
package indexcat

// Index describes one index as enumerated from the database's catalog.
type Index struct {
	SchemaName string   `json:"schema_name" mapstructure:"schema_name"`
	TableName  string   `json:"table_name" mapstructure:"table_name"`
	IndexName  string   `json:"index_name" mapstructure:"index_name"`
	Columns    []string `json:"columns" mapstructure:"columns"`
}

// Covers reports whether cols is a leading prefix, in order, of idx.Columns.
// No subset, no permutation, no partial match — matching a B-tree index's
// leading-key rule. A conservative matcher: false negatives ("missing")
// are acceptable, false positives are not.
func (idx Index) Covers(cols []string) bool {
	if len(cols) == 0 || len(cols) > len(idx.Columns) {
		return false
	}
	for i, col := range cols {
		if idx.Columns[i] != col {
			return false
		}
	}
	return true
}

// Catalog is the set of indexes known for a database, as produced by the
// external index-enumeration collaborator.
type Catalog []Index

// Matches reports whether some index in the catalog covers (table, cols) as
// a leading prefix. table and the catalog's TableName are both resolved
// through aliases before comparison: aliases maps alias_or_name -> real
// name, same table mapping the SQL AST walk in sqlnorm built.
func (c Catalog) Matches(table string, cols []string, aliases map[string]string) bool {
	resolvedTable := resolve(table, aliases)
	for _, idx := range c {
		if resolve(idx.TableName, aliases) != resolvedTable {
			continue
		}
		if idx.Covers(cols) {
			return true
		}
	}
	return false
}

func resolve(name string, aliases map[string]string) string {
	if aliases == nil {
		return name
	}
	if resolved, ok := aliases[name]; ok {
		return resolved
	}
	return name
}
