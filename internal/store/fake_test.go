package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// call records one statement sent to fakeDB.
type call struct {
	sql  string
	args []any
}

// fakeDB answers statements from scripted queues in the order they are issued.
type fakeDB struct {
	calls    []call
	rows     []fakeRow // consumed by QueryRow
	results  [][][]any // consumed by Query
	tags     []string  // consumed by Exec
	queryErr error
	execErr  error
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{sql, args})
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	r := f.rows[0]
	f.rows = f.rows[1:]
	return r
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var data [][]any
	if len(f.results) > 0 {
		data = f.results[0]
		f.results = f.results[1:]
	}
	return &fakeRows{data: data, pos: -1}, nil
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	tag := "UPDATE 0"
	if len(f.tags) > 0 {
		tag = f.tags[0]
		f.tags = f.tags[1:]
	}
	return pgconn.NewCommandTag(tag), nil
}

func (f *fakeDB) lastSQL() string {
	if len(f.calls) == 0 {
		return ""
	}
	return strings.Join(strings.Fields(f.calls[len(f.calls)-1].sql), " ")
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.pos++; return r.pos < len(r.data) }
func (r *fakeRows) Scan(dest ...any) error                       { return assign(dest, r.data[r.pos]) }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = values[i].(string)
		case *bool:
			*p = values[i].(bool)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}
