// Package store implements the status repositories on PostgreSQL via pgx.
//
// Tables read or written here:
//
//	jobs             (id, job_number, title, company_id, state, job_status, date_published, deadline)
//	job_applications (id uuid, applicant_id, job_id, status, last_date_modified)
//	applicants       (id, first_name, last_name, email)
//	companies        (id, name)
//
// Status writes are compare-and-swap on the previously loaded status.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the stores use. pgx.Tx satisfies it
// too.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
