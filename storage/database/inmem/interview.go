package inmemdb

import (
	"context"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/interview"
)

var interviewOrderings = map[string]compareFunc[interview.Interview]{
	"scheduled_at": func(a, b interview.Interview) int { return compareTimes(a.ScheduledAt, b.ScheduledAt) },
	"kind":         func(a, b interview.Interview) int { return compareStrings(string(a.Kind), string(b.Kind)) },
	"outcome":      func(a, b interview.Interview) int { return compareStrings(string(a.Outcome), string(b.Outcome)) },
	"company":      func(a, b interview.Interview) int { return compareStrings(a.Company, b.Company) },
	"created_at":   func(a, b interview.Interview) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

type interviewRepository struct {
	db *DB
}

var _ interview.Repository = (*interviewRepository)(nil) // interface compliance check

func NewInterviewRepository(db *DB) *interviewRepository {
	return &interviewRepository{db: db}
}

// withApplication fills the joined application fields; the read lock must be held.
func (repo *interviewRepository) withApplication(iv interview.Interview) interview.Interview {
	if app, ok := repo.db.applications[iv.ApplicationID]; ok {
		iv.Company = app.Company
		iv.Position = app.Position
	}
	return iv
}

func (repo *interviewRepository) CreateInterview(_ context.Context, iv interview.Interview) (interview.Interview, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	iv.ID = newID()
	iv.Company, iv.Position = "", ""
	repo.db.interviews[iv.ID] = &iv
	return repo.withApplication(iv), nil
}

func matchInterview(iv interview.Interview, filter *interview.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.UserID != "" && iv.UserID != filter.UserID {
		return false
	}
	if filter.ApplicationID != "" && iv.ApplicationID != filter.ApplicationID {
		return false
	}
	if !inRange(iv.ScheduledAt, filter.From, filter.To) {
		return false
	}
	if len(filter.Outcomes) > 0 {
		for _, o := range filter.Outcomes {
			if iv.Outcome == o {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *interviewRepository) QueryInterviews(_ context.Context, filter *interview.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]interview.Interview, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ivs := make([]interview.Interview, 0)
	for _, iv := range repo.db.interviews {
		if matchInterview(*iv, filter) {
			ivs = append(ivs, repo.withApplication(*iv))
		}
	}
	sortRows(ivs, ordering, interviewOrderings, []core.DBOrdering{{Field: "scheduled_at", Ascending: true}, {Field: "created_at", Ascending: true}})
	return paginate(ivs, page), len(ivs), nil
}

func (repo *interviewRepository) GetInterview(_ context.Context, id string) (interview.Interview, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if iv, ok := repo.db.interviews[id]; ok {
		return repo.withApplication(*iv), nil
	}
	return interview.Interview{}, interview.ErrNotFound
}

func (repo *interviewRepository) UpdateInterview(_ context.Context, iv interview.Interview) (interview.Interview, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.interviews[iv.ID]; !ok {
		return interview.Interview{}, interview.ErrNotFound
	}
	iv.Company, iv.Position = "", ""
	repo.db.interviews[iv.ID] = &iv
	return repo.withApplication(iv), nil
}

func (repo *interviewRepository) DeleteInterview(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.interviews[id]; !ok {
		return interview.ErrNotFound
	}
	delete(repo.db.interviews, id)
	return nil
}
