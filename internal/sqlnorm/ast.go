package sqlnorm

import (
	"encoding/json"

	pgquery "github.com/pganalyze/pg_query_go/v6"
	"github.com/pkg/errors"
)

// WhereColumns maps table_name -> ordered (first-appearance) column names,
// as consumed by the missing-index analyzer (spec.md §4.3/§4.5.3).
type WhereColumns map[string][]string

// ExtractWhereColumns parses sql (already rewritten to positional
// placeholders) and returns, for every WHERE clause in the statement, the
// columns referenced grouped by resolved table. Aliases introduced in FROM
// or JOIN are resolved against the real table name; an unqualified column is
// attached to the sole candidate table when there is exactly one, and
// skipped otherwise (spec.md §4.3).
func ExtractWhereColumns(sql string) (WhereColumns, error) {
	root, err := parseTree(sql)
	if err != nil {
		return nil, err
	}

	aliases := map[string]string{}
	tableNames := map[string]bool{}
	collectAliases(root, aliases, tableNames)

	result := WhereColumns{}
	wheres := collectWhereClauses(root)
	for _, where := range wheres {
		cols := collectColumnRefs(where)
		byTable := map[string][]string{}
		var tableOrder []string
		for _, col := range cols {
			table := col.table
			if table != "" {
				if resolved, ok := aliases[table]; ok {
					table = resolved
				}
			} else {
				// unqualified: only attach when there's exactly one
				// candidate table in scope.
				if len(tableNames) == 1 {
					for name := range tableNames {
						table = name
					}
				} else {
					continue
				}
			}
			if table == "" {
				continue
			}
			if !containsStr(byTable[table], col.name) {
				if len(byTable[table]) == 0 {
					tableOrder = append(tableOrder, table)
				}
				byTable[table] = append(byTable[table], col.name)
			}
		}
		for _, table := range tableOrder {
			result[table] = append(result[table], byTable[table]...)
		}
	}

	return result, nil
}

// TableAliases parses sql and returns the alias_or_name -> real table name
// map built from every table reference reachable from a FROM or JOIN. It is
// exposed separately from ExtractWhereColumns so callers that already have
// columns-by-table (e.g. the missing-index analyzer, which needs the same
// alias table to ask the index catalog the identical question) don't parse
// twice.
func TableAliases(sql string) (map[string]string, error) {
	root, err := parseTree(sql)
	if err != nil {
		return nil, err
	}
	aliases := map[string]string{}
	tableNames := map[string]bool{}
	collectAliases(root, aliases, tableNames)
	return aliases, nil
}

func parseTree(sql string) (any, error) {
	tree, err := pgquery.ParseToJSON(sql)
	if err != nil {
		return nil, errors.Wrap(err, "parse sql")
	}
	var root any
	if err := json.Unmarshal([]byte(tree), &root); err != nil {
		return nil, errors.Wrap(err, "decode parse tree")
	}
	return root, nil
}

type columnRef struct {
	table string
	name  string
}

// collectAliases walks the whole parse tree looking for RangeVar nodes
// (table references reachable from FROM/JOIN) and records alias_or_name ->
// real name.
func collectAliases(node any, out map[string]string, tableNames map[string]bool) {
	walkRaw(node, func(key string, val map[string]any) {
		if key != "RangeVar" {
			return
		}
		name, _ := val["relname"].(string)
		if name == "" {
			return
		}
		tableNames[name] = true
		aliasOrName := name
		if aliasNode, ok := val["alias"].(map[string]any); ok {
			if aliasName, ok := aliasNode["aliasname"].(string); ok && aliasName != "" {
				aliasOrName = aliasName
			}
		}
		out[aliasOrName] = name
		out[name] = name
	})
}

// collectWhereClauses returns the root node of every whereClause found in
// the tree (a SelectStmt's WHERE, including in subqueries).
func collectWhereClauses(node any) []any {
	var clauses []any
	walkRaw(node, func(key string, val map[string]any) {
		if key != "SelectStmt" {
			return
		}
		if where, ok := val["whereClause"]; ok && where != nil {
			clauses = append(clauses, where)
		}
	})
	return clauses
}

// collectColumnRefs finds every ColumnRef beneath the given subtree.
func collectColumnRefs(node any) []columnRef {
	var refs []columnRef
	walkRaw(node, func(key string, val map[string]any) {
		if key != "ColumnRef" {
			return
		}
		fields, _ := val["fields"].([]any)
		var parts []string
		for _, f := range fields {
			fm, ok := f.(map[string]any)
			if !ok {
				continue
			}
			if str, ok := fm["String"].(map[string]any); ok {
				if s, ok := str["sval"].(string); ok {
					parts = append(parts, s)
					continue
				}
			}
			// A_Star or anything else contributes nothing usable.
		}
		switch len(parts) {
		case 0:
			return
		case 1:
			refs = append(refs, columnRef{name: parts[0]})
		default:
			// table.column, possibly schema.table.column: table is the
			// second-to-last part, column is the last.
			refs = append(refs, columnRef{table: parts[len(parts)-2], name: parts[len(parts)-1]})
		}
	})
	return refs
}

// walkRaw visits every {key: map[string]any} pair anywhere in the decoded
// parse tree and calls fn for each. Node "types" in the protobuf JSON
// encoding appear as a single-key object whose key is the message name
// (e.g. {"RangeVar": {...}}), so this generic walk finds every node of a
// given type regardless of where it's nested.
func walkRaw(node any, fn func(key string, val map[string]any)) {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if m, ok := val.(map[string]any); ok {
				fn(key, m)
			}
			walkRaw(val, fn)
		}
	case []any:
		for _, item := range v {
			walkRaw(item, fn)
		}
	}
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
