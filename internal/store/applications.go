package store

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobboard/lifecycle-service/internal/lifecycle"
	"jobboard/lifecycle-service/internal/status"
)

// ApplicationStore persists application status and resolves who to notify.
type ApplicationStore struct {
	db Querier
}

// NewApplicationStore returns an ApplicationStore over db.
func NewApplicationStore(db Querier) *ApplicationStore {
	return &ApplicationStore{db: db}
}

var _ status.ApplicationRepository = (*ApplicationStore)(nil)

// parseID rejects malformed ids before they reach the uuid column.
func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, status.ErrNotFound
	}
	return u, nil
}

func (s *ApplicationStore) LoadApplicationStatus(ctx context.Context, id string) (lifecycle.Status, error) {
	u, err := parseID(id)
	if err != nil {
		return "", err
	}
	var st string
	err = s.db.QueryRow(ctx,
		`SELECT status FROM job_applications WHERE id = $1`,
		u,
	).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", status.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "load application %s", u)
	}
	return lifecycle.Status(st), nil
}

func (s *ApplicationStore) SaveApplicationStatus(ctx context.Context, id string, from, to lifecycle.Status) error {
	u, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE job_applications
		 SET status = $1, last_date_modified = NOW()
		 WHERE id = $2 AND status = $3`,
		string(to), u, string(from),
	)
	if err != nil {
		return errors.Wrapf(err, "save application %s", u)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return missOrConflict(ctx, s.db, `SELECT EXISTS (SELECT 1 FROM job_applications WHERE id = $1)`, u)
}

// Recipient returns the applicant's address together with the job and
// company the application is for.
func (s *ApplicationStore) Recipient(ctx context.Context, id string) (*status.Recipient, error) {
	u, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var r status.Recipient
	err = s.db.QueryRow(ctx,
		`SELECT COALESCE(a.email, ''),
		        TRIM(CONCAT(a.first_name, ' ', a.last_name)),
		        j.title,
		        COALESCE(c.name, '')
		 FROM job_applications ja
		 JOIN applicants a ON a.id = ja.applicant_id
		 JOIN jobs j ON j.id = ja.job_id
		 LEFT JOIN companies c ON c.id = j.company_id
		 WHERE ja.id = $1`,
		u,
	).Scan(&r.Email, &r.Name, &r.JobTitle, &r.CompanyName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolve recipient for %s", u)
	}
	return &r, nil
}
