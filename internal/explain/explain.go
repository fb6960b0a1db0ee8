// Package explain is the Postgres collaborator (G3, SPEC_FULL.md §4.10): it
// runs EXPLAIN (FORMAT JSON) against every distinct SQL string reachable
// from a test span and builds the metadata the analyzers consume.
package explain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/scttnlsn/sql-critic/internal/analysis"
	"github.com/scttnlsn/sql-critic/internal/indexcat"
	"github.com/scttnlsn/sql-critic/internal/spanmodel"
	"github.com/scttnlsn/sql-critic/internal/sqlnorm"
)

// undefinedTableSQLState is Postgres SQLSTATE 42P01 ("undefined_table"),
// swallowed the same way the original adapter's UndefinedTable handling did.
const undefinedTableSQLState = "42P01"

// Runner drives EXPLAIN/index-catalog collection over one database
// connection.
type Runner struct {
	conn *pgx.Conn
}

// Connect opens a connection to dbURL. The caller must Close it.
func Connect(ctx context.Context, dbURL string) (*Runner, error) {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	return &Runner{conn: conn}, nil
}

func (r *Runner) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

// Run distinguishes every SQL string among forest's DB SELECT spans
// descending from a test span, EXPLAINs each, and returns the resulting
// metadata (explain plans plus the index catalog). Every statement runs
// inside one rolled-back transaction so EXPLAIN can never commit data
// changes (spec.md §4.10).
func (r *Runner) Run(ctx context.Context, forest *spanmodel.Forest) (*analysis.Metadata, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin explain transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET enable_seqscan = OFF"); err != nil {
		return nil, errors.Wrap(err, "set enable_seqscan")
	}
	if _, err := tx.Exec(ctx, "SET plan_cache_mode = force_generic_plan"); err != nil {
		return nil, errors.Wrap(err, "set plan_cache_mode")
	}

	explained := map[string]analysis.ExplainDocument{}
	for i, sql := range distinctTestSQL(forest) {
		doc, err := explainOne(ctx, tx, fmt.Sprintf("stmt%d", i), sql)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			explained[sql] = *doc
		}
	}

	indexes, err := indexcat.Fetch(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &analysis.Metadata{Explained: explained, Indexes: indexes}, nil
}

func explainOne(ctx context.Context, tx pgx.Tx, stmtName, sql string) (*analysis.ExplainDocument, error) {
	rewritten := sqlnorm.RewritePlaceholders(sql)
	n := countPlaceholders(rewritten)

	prepare := fmt.Sprintf("PREPARE %s AS %s", stmtName, rewritten)
	if _, err := tx.Exec(ctx, prepare); err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "prepare %q", sql)
	}
	defer func() { _, _ = tx.Exec(ctx, "DEALLOCATE "+stmtName) }()

	execArgs := argPlaceholders(n)
	row := tx.QueryRow(ctx, fmt.Sprintf("EXPLAIN (FORMAT JSON) EXECUTE %s%s", stmtName, execArgs))

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "explain %q", sql)
	}

	var docs []analysis.ExplainDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode explain output for %q", sql)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func argPlaceholders(n int) string {
	if n == 0 {
		return ""
	}
	out := "("
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += "NULL"
	}
	return out + ")"
}

func countPlaceholders(sql string) int {
	n := 0
	for i := 0; i+1 < len(sql); i++ {
		if sql[i] == '$' {
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j > i+1 {
				n++
				i = j - 1
			}
		}
	}
	return n
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableSQLState
}

// distinctTestSQL returns, in forest order, the distinct SQL texts of every
// DB SELECT span with an enclosing test span.
func distinctTestSQL(forest *spanmodel.Forest) []string {
	seen := map[string]bool{}
	var out []string
	for _, span := range forest.Ordered() {
		if span.Kind() != spanmodel.DB || span.Name != "SELECT" {
			continue
		}
		if _, ok := forest.EnclosingTest(span); !ok {
			continue
		}
		sql, ok := span.SQL()
		if !ok || seen[sql] {
			continue
		}
		seen[sql] = true
		out = append(out, sql)
	}
	return out
}
