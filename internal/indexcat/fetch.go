package indexcat

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// querier is the subset of pgx.Conn/pgx.Tx that Fetch needs, so it can run
// inside the caller's explain transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Fetch enumerates every index on every table in the "public" schema via
// pg_index/pg_class/pg_namespace/pg_attribute, building the Catalog the missing-index analyzer
// (C6) consults. Column order is the index's own attribute order, which is
// what leading-prefix matching (Covers) requires.
func Fetch(ctx context.Context, q querier) (Catalog, error) {
	rows, err := q.Query(ctx, `
		SELECT
			n.nspname AS schema_name,
			t.relname AS table_name,
			i.relname AS index_name,
			a.attname AS column_name,
			array_position(ix.indkey, a.attnum) AS column_position
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = 'public'
		ORDER BY i.relname, column_position
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query pg_indexes")
	}
	defer rows.Close()

	byIndex := map[string]*Index{}
	var order []string
	for rows.Next() {
		var schemaName, tableName, indexName, columnName string
		var columnPosition int
		if err := rows.Scan(&schemaName, &tableName, &indexName, &columnName, &columnPosition); err != nil {
			return nil, errors.Wrap(err, "scan pg_indexes row")
		}

		idx, ok := byIndex[indexName]
		if !ok {
			idx = &Index{SchemaName: schemaName, TableName: tableName, IndexName: indexName}
			byIndex[indexName] = idx
			order = append(order, indexName)
		}
		idx.Columns = append(idx.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate pg_indexes rows")
	}

	catalog := make(Catalog, 0, len(order))
	for _, name := range order {
		catalog = append(catalog, *byIndex[name])
	}
	return catalog, nil
}
