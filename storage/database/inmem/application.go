package inmemdb

import (
	"context"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/application"
)

var applicationOrderings = map[string]compareFunc[application.Application]{
	"company":    func(a, b application.Application) int { return compareStrings(a.Company, b.Company) },
	"position":   func(a, b application.Application) int { return compareStrings(a.Position, b.Position) },
	"status":     func(a, b application.Application) int { return compareStrings(string(a.Status), string(b.Status)) },
	"applied_on": func(a, b application.Application) int { return compareTimes(a.AppliedOn, b.AppliedOn) },
	"created_at": func(a, b application.Application) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"updated_at": func(a, b application.Application) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
}

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db}
}

// deleteApplication must be called with the write lock held.
func (db *DB) deleteApplication(id string) {
	delete(db.applications, id)
	for ivID, iv := range db.interviews {
		if iv.ApplicationID == id {
			delete(db.interviews, ivID)
		}
	}
}

func (repo *applicationRepository) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	app.ID = newID()
	repo.db.applications[app.ID] = &app
	return app, nil
}

func matchApplication(app application.Application, filter *application.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.UserID != "" && app.UserID != filter.UserID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if app.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Search != "" && !contains(app.Company, filter.Search) && !contains(app.Position, filter.Search) {
		return false
	}
	if !filter.AppliedFrom.IsZero() && app.AppliedOn.Before(filter.AppliedFrom) {
		return false
	}
	if !filter.AppliedTo.IsZero() && app.AppliedOn.After(filter.AppliedTo) {
		return false
	}
	return true
}

func (repo *applicationRepository) QueryApplications(_ context.Context, filter *application.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]application.Application, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]application.Application, 0)
	for _, app := range repo.db.applications {
		if matchApplication(*app, filter) {
			apps = append(apps, *app)
		}
	}
	sortRows(apps, ordering, applicationOrderings, []core.DBOrdering{{Field: "applied_on"}, {Field: "created_at"}})
	return paginate(apps, page), len(apps), nil
}

func (repo *applicationRepository) GetApplication(_ context.Context, id string) (application.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) UpdateApplication(_ context.Context, app application.Application) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.applications[app.ID]; !ok {
		return application.Application{}, application.ErrNotFound
	}
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) DeleteApplication(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.applications[id]; !ok {
		return application.ErrNotFound
	}
	repo.db.deleteApplication(id)
	return nil
}

func (repo *applicationRepository) CountApplicationsByStatus(_ context.Context, userID string) (map[application.Status]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[application.Status]int)
	for _, app := range repo.db.applications {
		if userID == "" || app.UserID == userID {
			counts[app.Status]++
		}
	}
	return counts, nil
}
