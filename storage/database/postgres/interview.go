package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/interview"
)

const (
	interviewColumns = "id, application_id, user_id, scheduled_at, duration_minutes, kind, location, interviewer, " +
		"notes, outcome, created_at, updated_at"
	interviewSelect = "SELECT i.id, i.application_id, i.user_id, i.scheduled_at, i.duration_minutes, i.kind, i.location, " +
		"i.interviewer, i.notes, i.outcome, i.created_at, i.updated_at, a.company, a.position " +
		"FROM interviews i JOIN applications a ON a.id = i.application_id"
)

var interviewOrderings = map[string]string{
	"scheduled_at": "i.scheduled_at",
	"kind":         "i.kind",
	"outcome":      "i.outcome",
	"company":      "a.company",
	"created_at":   "i.created_at",
}

type interviewRepository struct {
	exec core.DBExecutor
}

var _ interview.Repository = (*interviewRepository)(nil) // interface compliance check

func NewInterviewRepository(exec core.DBExecutor) *interviewRepository {
	return &interviewRepository{exec: exec}
}

func (repo *interviewRepository) CreateInterview(ctx context.Context, iv interview.Interview) (interview.Interview, error) {
	iv.ID = uuid.New().String()
	q := `INSERT INTO interviews (` + interviewColumns + `)
		VALUES (:id, :application_id, :user_id, :scheduled_at, :duration_minutes, :kind, :location, :interviewer,
		:notes, :outcome, :created_at, :updated_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, iv); err != nil {
		if isForeignKeyViolation(err) {
			return interview.Interview{}, core.NewNotFoundError("application")
		}
		return interview.Interview{}, errors.Wrap(err, "inserting interview")
	}
	return repo.GetInterview(ctx, iv.ID)
}

func (repo *interviewRepository) QueryInterviews(ctx context.Context, filter *interview.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]interview.Interview, int, error) {
	w := &where{}
	if filter != nil {
		if filter.UserID != "" {
			if !validID(filter.UserID) {
				return []interview.Interview{}, 0, nil
			}
			w.add("i.user_id = ?", filter.UserID)
		}
		if filter.ApplicationID != "" {
			if !validID(filter.ApplicationID) {
				return []interview.Interview{}, 0, nil
			}
			w.add("i.application_id = ?", filter.ApplicationID)
		}
		if !filter.From.IsZero() {
			w.add("i.scheduled_at >= ?", filter.From.UTC())
		}
		if !filter.To.IsZero() {
			w.add("i.scheduled_at < ?", filter.To.UTC())
		}
		if len(filter.Outcomes) > 0 {
			w.add("i.outcome IN (?)", filter.Outcomes)
		}
	}

	ivs := make([]interview.Interview, 0)
	orderBy := core.OrderBy(ordering, interviewOrderings, "i.scheduled_at ASC, i.created_at ASC")
	countFrom := "FROM interviews i JOIN applications a ON a.id = i.application_id"
	total, err := queryPage(ctx, repo.exec, &ivs, interviewSelect, countFrom, w, orderBy, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying interviews")
	}
	return ivs, total, nil
}

func (repo *interviewRepository) GetInterview(ctx context.Context, id string) (interview.Interview, error) {
	if !validID(id) {
		return interview.Interview{}, interview.ErrNotFound
	}
	var iv interview.Interview
	if err := repo.exec.GetContext(ctx, &iv, interviewSelect+" WHERE i.id = $1", id); err != nil {
		return interview.Interview{}, trapNoRowsErr(err, interview.ErrNotFound, "finding interview")
	}
	return iv, nil
}

func (repo *interviewRepository) UpdateInterview(ctx context.Context, iv interview.Interview) (interview.Interview, error) {
	q := `UPDATE interviews SET
		scheduled_at = :scheduled_at, duration_minutes = :duration_minutes, kind = :kind, location = :location,
		interviewer = :interviewer, notes = :notes, outcome = :outcome, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, iv)
	if err != nil {
		return interview.Interview{}, errors.Wrap(err, "updating interview")
	}
	if err = checkAffected(res, interview.ErrNotFound); err != nil {
		return interview.Interview{}, err
	}
	return iv, nil
}

func (repo *interviewRepository) DeleteInterview(ctx context.Context, id string) error {
	if !validID(id) {
		return interview.ErrNotFound
	}
	res, err := repo.exec.ExecContext(ctx, "DELETE FROM interviews WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting interview")
	}
	return checkAffected(res, interview.ErrNotFound)
}
