package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/call"
)

const callColumns = "id, caller_id, contact_name, phone, company, purpose, scheduled_at, duration_minutes, status, " +
	"outcome, notes, completed_at, created_at, updated_at"

var callOrderings = map[string]string{
	"scheduled_at": "scheduled_at",
	"contact_name": "contact_name",
	"company":      "company",
	"status":       "status",
	"created_at":   "created_at",
}

type callRepository struct {
	exec core.DBExecutor
}

var _ call.Repository = (*callRepository)(nil) // interface compliance check

func NewCallRepository(exec core.DBExecutor) *callRepository {
	return &callRepository{exec: exec}
}

func (repo *callRepository) CreateCall(ctx context.Context, c call.Call) (call.Call, error) {
	c.ID = uuid.New().String()
	q := `INSERT INTO calls (` + callColumns + `)
		VALUES (:id, :caller_id, :contact_name, :phone, :company, :purpose, :scheduled_at, :duration_minutes, :status,
		:outcome, :notes, :completed_at, :created_at, :updated_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, c); err != nil {
		return call.Call{}, errors.Wrap(err, "inserting call")
	}
	return c, nil
}

func (repo *callRepository) QueryCalls(ctx context.Context, filter *call.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]call.Call, int, error) {
	w := &where{}
	if filter != nil {
		if filter.CallerID != "" {
			if !validID(filter.CallerID) {
				return []call.Call{}, 0, nil
			}
			w.add("caller_id = ?", filter.CallerID)
		}
		if len(filter.Statuses) > 0 {
			w.add("status IN (?)", filter.Statuses)
		}
		if !filter.From.IsZero() {
			w.add("scheduled_at >= ?", filter.From.UTC())
		}
		if !filter.To.IsZero() {
			w.add("scheduled_at < ?", filter.To.UTC())
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("contact_name ILIKE ? OR company ILIKE ?", val, val)
		}
	}

	calls := make([]call.Call, 0)
	orderBy := core.OrderBy(ordering, callOrderings, "scheduled_at ASC, created_at ASC")
	total, err := queryPage(ctx, repo.exec, &calls, "SELECT "+callColumns+" FROM calls", "FROM calls", w, orderBy, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying calls")
	}
	return calls, total, nil
}

func (repo *callRepository) GetCall(ctx context.Context, id string) (call.Call, error) {
	if !validID(id) {
		return call.Call{}, call.ErrNotFound
	}
	var c call.Call
	if err := repo.exec.GetContext(ctx, &c, "SELECT "+callColumns+" FROM calls WHERE id = $1", id); err != nil {
		return call.Call{}, trapNoRowsErr(err, call.ErrNotFound, "finding call")
	}
	return c, nil
}

func (repo *callRepository) UpdateCall(ctx context.Context, c call.Call) (call.Call, error) {
	q := `UPDATE calls SET
		contact_name = :contact_name, phone = :phone, company = :company, purpose = :purpose,
		scheduled_at = :scheduled_at, duration_minutes = :duration_minutes, status = :status, outcome = :outcome,
		notes = :notes, completed_at = :completed_at, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, c)
	if err != nil {
		return call.Call{}, errors.Wrap(err, "updating call")
	}
	if err = checkAffected(res, call.ErrNotFound); err != nil {
		return call.Call{}, err
	}
	return c, nil
}

func (repo *callRepository) DeleteCall(ctx context.Context, id string) error {
	if !validID(id) {
		return call.ErrNotFound
	}
	res, err := repo.exec.ExecContext(ctx, "DELETE FROM calls WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting call")
	}
	return checkAffected(res, call.ErrNotFound)
}

func (repo *callRepository) CountCallsByStatus(ctx context.Context, callerID string) (map[call.Status]int, error) {
	w := &where{}
	if callerID != "" {
		w.add("caller_id = ?", callerID)
	}
	q, args, err := w.build(repo.exec, "SELECT status, COUNT(*) AS count FROM calls", " GROUP BY status")
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []struct {
		Status call.Status `db:"status"`
		Count  int         `db:"count"`
	}
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "counting calls by status")
	}
	counts := make(map[call.Status]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
