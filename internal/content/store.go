// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"clubhouse/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Filter narrows a list read. Where keys must be declared columns or "id".
type Filter struct {
	Where       map[string]any
	VisibleOnly bool
	Limit       uint64
	Offset      uint64
}

// key renders the filter deterministically for use as a cache key.
func (f Filter) key() string {
	cols := make([]string, 0, len(f.Where))
	for c := range f.Where {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var b strings.Builder
	fmt.Fprintf(&b, "v=%t;l=%d;o=%d", f.VisibleOnly, f.Limit, f.Offset)
	for _, c := range cols {
		fmt.Fprintf(&b, ";%s=%v", c, f.Where[c])
	}
	return b.String()
}

// Store runs generic queries against content tables. It performs no
// authorization; Service does.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) where(q sq.SelectBuilder, t Table, f Filter) (sq.SelectBuilder, error) {
	eq := sq.Eq{}
	for col, val := range f.Where {
		if !t.filterable(col) {
			return q, fmt.Errorf("filter %s: unknown column %q", t.Name, col)
		}
		eq[col] = val
	}
	if f.VisibleOnly && t.Visibility != "" {
		eq[t.Visibility] = true
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	return q, nil
}

// List returns rows matching f in the table's declared order.
func (s *Store) List(ctx context.Context, t Table, f Filter) ([]models.Row, error) {
	q, err := s.where(psql.Select(t.selectColumns()...).From(t.Name), t, f)
	if err != nil {
		return nil, err
	}
	q = q.OrderBy(t.OrderBy...)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s list: %w", t.Name, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Name, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Count returns how many rows match f.
func (s *Store) Count(ctx context.Context, t Table, f Filter) (int, error) {
	q, err := s.where(psql.Select("COUNT(*)").From(t.Name), t, f)
	if err != nil {
		return 0, err
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", t.Name, err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

// Get returns one row by id.
func (s *Store) Get(ctx context.Context, t Table, id uuid.UUID) (models.Row, error) {
	rows, err := s.List(ctx, t, Filter{Where: map[string]any{"id": id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Insert adds a row and returns its id. createdBy is recorded on owned
// tables when not uuid.Nil.
func (s *Store) Insert(ctx context.Context, t Table, v Values, createdBy uuid.UUID) (uuid.UUID, error) {
	set := make(map[string]any, len(v)+1)
	for k, val := range v {
		set[k] = val
	}
	if t.Owned && createdBy != uuid.Nil {
		set["created_by"] = createdBy
	}

	query, args, err := psql.Insert(t.Name).SetMap(set).Suffix("RETURNING id").ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build %s insert: %w", t.Name, err)
	}
	var id uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Update writes v to the row with id. Returns ErrNotFound if no row matched.
func (s *Store) Update(ctx context.Context, t Table, id uuid.UUID, v Values) error {
	q := psql.Update(t.Name).Set("updated_at", sq.Expr("NOW()")).Where(sq.Eq{"id": id})
	cols := make([]string, 0, len(v))
	for k := range v {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	for _, k := range cols {
		q = q.Set(k, v[k])
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s update: %w", t.Name, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes the row with id. Returns ErrNotFound if no row matched.
func (s *Store) Delete(ctx context.Context, t Table, id uuid.UUID) error {
	query, args, err := psql.Delete(t.Name).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build %s delete: %w", t.Name, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]models.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := []models.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(models.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
