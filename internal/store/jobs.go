package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"jobboard/lifecycle-service/internal/lifecycle"
	"jobboard/lifecycle-service/internal/status"
)

// JobStore persists job status. It implements status.JobRepository.
type JobStore struct {
	db Querier
}

// NewJobStore returns a JobStore over db.
func NewJobStore(db Querier) *JobStore {
	return &JobStore{db: db}
}

var _ status.JobRepository = (*JobStore)(nil)

// LoadJobStatus returns the current status of the job with the given number.
func (s *JobStore) LoadJobStatus(ctx context.Context, jobNumber string) (lifecycle.Status, error) {
	var st string
	err := s.db.QueryRow(ctx,
		`SELECT job_status FROM jobs WHERE job_number = $1`,
		jobNumber,
	).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", status.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "load job %s", jobNumber)
	}
	return lifecycle.Status(st), nil
}

// SaveJobStatus moves the job from one status to another. publishedAt, when
// set, overwrites date_published in the same statement.
func (s *JobStore) SaveJobStatus(ctx context.Context, jobNumber string, from, to lifecycle.Status, publishedAt *time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE jobs
		 SET job_status = $1, date_published = COALESCE($2, date_published)
		 WHERE job_number = $3 AND job_status = $4`,
		string(to), publishedAt, jobNumber, string(from),
	)
	if err != nil {
		return errors.Wrapf(err, "save job %s", jobNumber)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return missOrConflict(ctx, s.db, `SELECT EXISTS (SELECT 1 FROM jobs WHERE job_number = $1)`, jobNumber)
}

// ListExpiredPublished returns active published jobs whose deadline is before now, oldest first.
func (s *JobStore) ListExpiredPublished(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT job_number FROM jobs
		 WHERE job_status = $1 AND state = 1
		   AND deadline IS NOT NULL AND deadline < $2
		 ORDER BY deadline`,
		string(lifecycle.JobPublished), now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list expired jobs")
	}
	numbers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "scan expired jobs")
	}
	return numbers, nil
}

// missOrConflict runs after a compare-and-swap touched no rows and tells a
// vanished record apart from a lost race.
func missOrConflict(ctx context.Context, db Querier, existsSQL string, id any) error {
	var exists bool
	if err := db.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return errors.Wrap(err, "check existence")
	}
	if !exists {
		return status.ErrNotFound
	}
	return status.ErrConflict
}
