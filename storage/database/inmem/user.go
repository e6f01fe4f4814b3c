package inmemdb

import (
	"context"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
)

var userOrderings = map[string]compareFunc[user.User]{
	"name":       func(a, b user.User) int { return compareStrings(a.Name, b.Name) },
	"email":      func(a, b user.User) int { return compareStrings(a.Email, b.Email) },
	"role":       func(a, b user.User) int { return compareInts(int(a.Role), int(b.Role)) },
	"created_at": func(a, b user.User) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"last_login": func(a, b user.User) int { return compareTimes(a.LastLogin, b.LastLogin) },
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, usr := range repo.db.users {
		if usr.Email == email && !excluded[usr.ID] {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = newID()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" && !contains(usr.Name, filter.Search) && !contains(usr.Email, filter.Search) {
		return false
	}
	if len(filter.Roles) > 0 {
		found := false
		for _, r := range filter.Roles {
			if usr.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]user.User, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if matchUser(*usr, filter) {
			users = append(users, *usr)
		}
	}
	sortRows(users, ordering, userOrderings, []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "email", Ascending: true}})
	return paginate(users, page), len(users), nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.users {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.users {
		if u.Email == usr.Email && u.ID != usr.ID {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

// DeleteUsersByID cascades to the users' applications, interviews, calls & activities.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.users[id]; !ok {
			continue
		}
		delete(repo.db.users, id)
		cnt++

		for appID, app := range repo.db.applications {
			if app.UserID == id {
				repo.db.deleteApplication(appID)
			}
		}
		for ivID, iv := range repo.db.interviews {
			if iv.UserID == id {
				delete(repo.db.interviews, ivID)
			}
		}
		for callID, c := range repo.db.calls {
			if c.CallerID == id {
				delete(repo.db.calls, callID)
			}
		}
		events := repo.db.activities[:0]
		for _, ev := range repo.db.activities {
			if ev.ActorID != id {
				events = append(events, ev)
			}
		}
		repo.db.activities = events
	}
	return cnt, nil
}
