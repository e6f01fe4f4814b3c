package inmemdb

import (
	"context"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/call"
)

var callOrderings = map[string]compareFunc[call.Call]{
	"scheduled_at": func(a, b call.Call) int { return compareTimes(a.ScheduledAt, b.ScheduledAt) },
	"contact_name": func(a, b call.Call) int { return compareStrings(a.ContactName, b.ContactName) },
	"company":      func(a, b call.Call) int { return compareStrings(a.Company, b.Company) },
	"status":       func(a, b call.Call) int { return compareStrings(string(a.Status), string(b.Status)) },
	"created_at":   func(a, b call.Call) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

type callRepository struct {
	db *DB
}

var _ call.Repository = (*callRepository)(nil) // interface compliance check

func NewCallRepository(db *DB) *callRepository {
	return &callRepository{db: db}
}

func (repo *callRepository) CreateCall(_ context.Context, c call.Call) (call.Call, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = newID()
	repo.db.calls[c.ID] = &c
	return c, nil
}

func matchCall(c call.Call, filter *call.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.CallerID != "" && c.CallerID != filter.CallerID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if c.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !inRange(c.ScheduledAt, filter.From, filter.To) {
		return false
	}
	if filter.Search != "" && !contains(c.ContactName, filter.Search) && !contains(c.Company, filter.Search) {
		return false
	}
	return true
}

func (repo *callRepository) QueryCalls(_ context.Context, filter *call.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]call.Call, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	calls := make([]call.Call, 0)
	for _, c := range repo.db.calls {
		if matchCall(*c, filter) {
			calls = append(calls, *c)
		}
	}
	sortRows(calls, ordering, callOrderings, []core.DBOrdering{{Field: "scheduled_at", Ascending: true}, {Field: "created_at", Ascending: true}})
	return paginate(calls, page), len(calls), nil
}

func (repo *callRepository) GetCall(_ context.Context, id string) (call.Call, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.calls[id]; ok {
		return *c, nil
	}
	return call.Call{}, call.ErrNotFound
}

func (repo *callRepository) UpdateCall(_ context.Context, c call.Call) (call.Call, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.calls[c.ID]; !ok {
		return call.Call{}, call.ErrNotFound
	}
	repo.db.calls[c.ID] = &c
	return c, nil
}

func (repo *callRepository) DeleteCall(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.calls[id]; !ok {
		return call.ErrNotFound
	}
	delete(repo.db.calls, id)
	return nil
}

func (repo *callRepository) CountCallsByStatus(_ context.Context, callerID string) (map[call.Status]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[call.Status]int)
	for _, c := range repo.db.calls {
		if callerID == "" || c.CallerID == callerID {
			counts[c.Status]++
		}
	}
	return counts, nil
}
