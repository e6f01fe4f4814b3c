package pgrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/jobtrack/core/activity"
)

// statsRepository runs the admin aggregations as raw sqlboiler queries.
type statsRepository struct {
	exec boil.ContextExecutor
}

var _ activity.StatsRepository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(exec boil.ContextExecutor) *statsRepository {
	return &statsRepository{exec: exec}
}

type (
	countRow struct {
		Count int `boil:"count"`
	}

	keyCountRow struct {
		Key   string `boil:"key"`
		Count int    `boil:"count"`
	}
)

func (repo *statsRepository) count(ctx context.Context, q string, args ...interface{}) (int, error) {
	var row countRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &row); err != nil {
		return 0, err
	}
	return row.Count, nil
}

func (repo *statsRepository) countByKey(ctx context.Context, q string, args ...interface{}) (map[string]int, error) {
	var rows []keyCountRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Key] = r.Count
	}
	return counts, nil
}

func (repo *statsRepository) CountUsersByRole(ctx context.Context) ([]activity.RoleCount, error) {
	var rows []activity.RoleCount
	err := queries.Raw(`SELECT role, COUNT(*) AS count FROM users GROUP BY role ORDER BY role`).Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "counting users by role")
	}
	return rows, nil
}

func (repo *statsRepository) CountActiveUsers(ctx context.Context) (int, error) {
	n, err := repo.count(ctx, `SELECT COUNT(*) AS count FROM users WHERE is_active`)
	return n, errors.Wrap(err, "counting active users")
}

func (repo *statsRepository) CountApplicationsByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := repo.countByKey(ctx, `SELECT status AS key, COUNT(*) AS count FROM applications GROUP BY status`)
	return counts, errors.Wrap(err, "counting applications by status")
}

func (repo *statsRepository) CountApplicationsPerDay(ctx context.Context, from time.Time) ([]activity.DayCount, error) {
	var rows []activity.DayCount
	q := `SELECT date_trunc('day', created_at) AS day, COUNT(*) AS count
		FROM applications WHERE created_at >= $1
		GROUP BY 1 ORDER BY 1`
	if err := queries.Raw(q, from.UTC()).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "counting applications per day")
	}
	for i := range rows {
		rows[i].Day = rows[i].Day.UTC()
	}
	return rows, nil
}

func (repo *statsRepository) CountInterviewsBetween(ctx context.Context, from, to time.Time) (int, error) {
	n, err := repo.count(ctx,
		`SELECT COUNT(*) AS count FROM interviews WHERE scheduled_at >= $1 AND scheduled_at < $2 AND outcome <> 'cancelled'`,
		from.UTC(), to.UTC())
	return n, errors.Wrap(err, "counting interviews")
}

func (repo *statsRepository) CountCallsByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := repo.countByKey(ctx, `SELECT status AS key, COUNT(*) AS count FROM calls GROUP BY status`)
	return counts, errors.Wrap(err, "counting calls by status")
}

func (repo *statsRepository) UserActivities(ctx context.Context, since time.Time) ([]activity.UserActivity, error) {
	q := `SELECT u.id AS user_id, u.name, u.email, u.role,
		(SELECT COUNT(*) FROM applications a WHERE a.user_id = u.id AND a.created_at >= $1) AS applications,
		(SELECT COUNT(*) FROM interviews i WHERE i.user_id = u.id AND i.created_at >= $1) AS interviews,
		(SELECT COUNT(*) FROM applications a
			WHERE a.user_id = u.id AND a.status IN ('offer', 'accepted') AND a.updated_at >= $1) AS offers,
		(SELECT COUNT(*) FROM calls c WHERE c.caller_id = u.id AND c.created_at >= $1) AS calls_scheduled,
		(SELECT COUNT(*) FROM calls c
			WHERE c.caller_id = u.id AND c.status = 'completed' AND c.completed_at >= $1) AS calls_completed
		FROM users u
		WHERE u.is_active
		ORDER BY u.id`

	var rows []activity.UserActivity
	if err := queries.Raw(q, since.UTC()).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying user activities")
	}
	return rows, nil
}
