package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/RoundTrip/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Postgres is a single-table row store over pgx. Each adapter binds one
// Postgres store per entity type; the column list is the adapter's data
// columns (reserved pseudo-columns are filtered out).
type Postgres struct {
	db      DBTX
	table   string
	columns []string
}

// NewPostgres builds a store for one table. The id column is implicit
// and must not appear in columns.
func NewPostgres(db DBTX, table string, columns []string) *Postgres {
	data := make([]string, 0, len(columns))
	for _, c := range columns {
		switch c {
		case core.ColumnID, core.ColumnDeleteTag, core.ColumnCopyTag:
			continue
		}
		data = append(data, c)
	}
	return &Postgres{db: db, table: table, columns: data}
}

// Get loads one row by primary key. A missing row returns an error
// wrapping core.ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id core.RowID) (core.Row, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1",
		p.selectList(), pgx.Identifier{p.table}.Sanitize())

	values := make([]any, len(p.columns)+1)
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := p.db.QueryRow(ctx, sql, int64(id)).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: id %d: %w", p.table, id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: get %d: %w", p.table, id, err)
	}

	cols := make(map[string]any, len(p.columns))
	for i, c := range p.columns {
		cols[c] = values[i+1]
	}
	return NewRecord(id, cols), nil
}

// Save writes all data columns of the row back to its table.
func (p *Postgres) Save(ctx context.Context, row core.Row) error {
	if len(p.columns) == 0 {
		return nil
	}

	assigns := make([]string, len(p.columns))
	args := make([]any, 0, len(p.columns)+1)
	args = append(args, int64(row.ID()))
	for i, c := range p.columns {
		assigns[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{c}.Sanitize(), i+2)
		args = append(args, row.Get(c))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1",
		pgx.Identifier{p.table}.Sanitize(), strings.Join(assigns, ", "))

	if _, err := p.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: save %d: %w", p.table, row.ID(), err)
	}
	return nil
}

// Delete removes the row from its table.
func (p *Postgres) Delete(ctx context.Context, row core.Row) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", pgx.Identifier{p.table}.Sanitize())
	if _, err := p.db.Exec(ctx, sql, int64(row.ID())); err != nil {
		return fmt.Errorf("%s: delete %d: %w", p.table, row.ID(), err)
	}
	return nil
}

// List reads every row of the table ordered by id, for export.
func (p *Postgres) List(ctx context.Context) ([]core.Row, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY id",
		p.selectList(), pgx.Identifier{p.table}.Sanitize())

	rows, err := p.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", p.table, err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		values := make([]any, len(p.columns)+1)
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s: list scan: %w", p.table, err)
		}

		id, ok := values[0].(int64)
		if !ok {
			return nil, fmt.Errorf("%s: list: non-integer id %v", p.table, values[0])
		}
		cols := make(map[string]any, len(p.columns))
		for i, c := range p.columns {
			cols[c] = values[i+1]
		}
		out = append(out, NewRecord(core.RowID(id), cols))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: list: %w", p.table, err)
	}
	return out, nil
}

// selectList builds the quoted id-first column list for SELECTs.
func (p *Postgres) selectList() string {
	parts := make([]string, 0, len(p.columns)+1)
	parts = append(parts, pgx.Identifier{core.ColumnID}.Sanitize())
	for _, c := range p.columns {
		parts = append(parts, pgx.Identifier{c}.Sanitize())
	}
	return strings.Join(parts, ", ")
}
