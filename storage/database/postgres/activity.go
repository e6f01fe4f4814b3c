package pgrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
)

type activityRepository struct {
	exec core.DBExecutor
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(exec core.DBExecutor) *activityRepository {
	return &activityRepository{exec: exec}
}

func (repo *activityRepository) CreateEvent(ctx context.Context, ev activity.Event) (activity.Event, error) {
	ev.ID = uuid.New().String()
	q := `INSERT INTO activities (id, actor_id, kind, subject_type, subject_id, summary, created_at)
		VALUES (:id, :actor_id, :kind, :subject_type, :subject_id, :summary, :created_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, ev); err != nil {
		return activity.Event{}, errors.Wrap(err, "inserting activity")
	}
	return ev, nil
}

func (repo *activityRepository) QueryEvents(ctx context.Context, filter activity.FeedFilter) ([]activity.Event, error) {
	w := &where{}
	if filter.ActorID != "" {
		if !validID(filter.ActorID) {
			return []activity.Event{}, nil
		}
		w.add("e.actor_id = ?", filter.ActorID)
	}
	if len(filter.Kinds) > 0 {
		w.add("e.kind IN (?)", filter.Kinds)
	}
	if filter.SubjectType != "" {
		w.add("e.subject_type = ?", filter.SubjectType)
	}
	if filter.SubjectID != "" {
		if !validID(filter.SubjectID) {
			return []activity.Event{}, nil
		}
		w.add("e.subject_id = ?", filter.SubjectID)
	}
	if !filter.Before.IsZero() {
		w.add("e.created_at < ?", filter.Before.UTC())
	}

	head := `SELECT e.id, e.actor_id, COALESCE(u.name, '') AS actor_name, e.kind, e.subject_type, e.subject_id,
		e.summary, e.created_at
		FROM activities e LEFT JOIN users u ON u.id = e.actor_id`
	q, args, err := w.build(repo.exec, head, " ORDER BY e.created_at DESC, e.id DESC LIMIT ?", filter.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	events := make([]activity.Event, 0, filter.Limit)
	if err = repo.exec.SelectContext(ctx, &events, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return events, nil
}
