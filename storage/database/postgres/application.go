package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/application"
)

const applicationColumns = "id, user_id, company, position, location, job_url, source, salary_min, salary_max, " +
	"status, applied_on, notes, created_at, updated_at"

var applicationOrderings = map[string]string{
	"company":    "company",
	"position":   "position",
	"status":     "status",
	"applied_on": "applied_on",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type applicationRepository struct {
	exec core.DBExecutor
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(exec core.DBExecutor) *applicationRepository {
	return &applicationRepository{exec: exec}
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	app.ID = uuid.New().String()
	q := `INSERT INTO applications (` + applicationColumns + `)
		VALUES (:id, :user_id, :company, :position, :location, :job_url, :source, :salary_min, :salary_max,
		:status, :applied_on, :notes, :created_at, :updated_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, app); err != nil {
		return application.Application{}, errors.Wrap(err, "inserting application")
	}
	return app, nil
}

func (repo *applicationRepository) QueryApplications(ctx context.Context, filter *application.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]application.Application, int, error) {
	w := &where{}
	if filter != nil {
		if filter.UserID != "" {
			if !validID(filter.UserID) {
				return []application.Application{}, 0, nil
			}
			w.add("user_id = ?", filter.UserID)
		}
		if len(filter.Statuses) > 0 {
			w.add("status IN (?)", filter.Statuses)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("company ILIKE ? OR position ILIKE ?", val, val)
		}
		if !filter.AppliedFrom.IsZero() {
			w.add("applied_on >= ?", filter.AppliedFrom.UTC())
		}
		if !filter.AppliedTo.IsZero() {
			w.add("applied_on <= ?", filter.AppliedTo.UTC())
		}
	}

	apps := make([]application.Application, 0)
	orderBy := core.OrderBy(ordering, applicationOrderings, "applied_on DESC, created_at DESC")
	total, err := queryPage(ctx, repo.exec, &apps, "SELECT "+applicationColumns+" FROM applications", "FROM applications", w, orderBy, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying applications")
	}
	return apps, total, nil
}

func (repo *applicationRepository) GetApplication(ctx context.Context, id string) (application.Application, error) {
	if !validID(id) {
		return application.Application{}, application.ErrNotFound
	}
	var app application.Application
	err := repo.exec.GetContext(ctx, &app, "SELECT "+applicationColumns+" FROM applications WHERE id = $1", id)
	if err != nil {
		return application.Application{}, trapNoRowsErr(err, application.ErrNotFound, "finding application")
	}
	return app, nil
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	q := `UPDATE applications SET
		company = :company, position = :position, location = :location, job_url = :job_url, source = :source,
		salary_min = :salary_min, salary_max = :salary_max, status = :status, applied_on = :applied_on,
		notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, app)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "updating application")
	}
	if err = checkAffected(res, application.ErrNotFound); err != nil {
		return application.Application{}, err
	}
	return app, nil
}

func (repo *applicationRepository) DeleteApplication(ctx context.Context, id string) error {
	if !validID(id) {
		return application.ErrNotFound
	}
	res, err := repo.exec.ExecContext(ctx, "DELETE FROM applications WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting application")
	}
	return checkAffected(res, application.ErrNotFound)
}

func (repo *applicationRepository) CountApplicationsByStatus(ctx context.Context, userID string) (map[application.Status]int, error) {
	w := &where{}
	if userID != "" {
		w.add("user_id = ?", userID)
	}
	q, args, err := w.build(repo.exec, "SELECT status, COUNT(*) AS count FROM applications", " GROUP BY status")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []struct {
		Status application.Status `db:"status"`
		Count  int                `db:"count"`
	}
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "counting applications by status")
	}
	counts := make(map[application.Status]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
