package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/interview"
)

type activityRepository struct {
	db *DB
}

var (
	_ activity.Repository      = (*activityRepository)(nil) // interface compliance check
	_ activity.StatsRepository = (*activityRepository)(nil)
)

func NewActivityRepository(db *DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) CreateEvent(_ context.Context, ev activity.Event) (activity.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ev.ID = newID()
	ev.ActorName = ""
	repo.db.activities = append(repo.db.activities, ev)
	return ev, nil
}

// QueryEvents walks the log backwards: events are appended in creation order.
func (repo *activityRepository) QueryEvents(_ context.Context, filter activity.FeedFilter) ([]activity.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]activity.Event, 0, filter.Limit)
	for i := len(repo.db.activities) - 1; i >= 0 && len(events) < filter.Limit; i-- {
		ev := repo.db.activities[i]
		if !filter.Matches(ev) {
			continue
		}
		if usr, ok := repo.db.users[ev.ActorID]; ok {
			ev.ActorName = usr.Name
		}
		events = append(events, ev)
	}
	return events, nil
}

func (repo *activityRepository) CountUsersByRole(_ context.Context) ([]activity.RoleCount, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byRole := make(map[int]int)
	for _, usr := range repo.db.users {
		byRole[int(usr.Role)]++
	}
	counts := make([]activity.RoleCount, 0, len(byRole))
	for role, n := range byRole {
		counts = append(counts, activity.RoleCount{Role: role, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Role < counts[j].Role })
	return counts, nil
}

func (repo *activityRepository) CountActiveUsers(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, usr := range repo.db.users {
		if usr.IsActive {
			n++
		}
	}
	return n, nil
}

func (repo *activityRepository) CountApplicationsByStatus(_ context.Context) (map[string]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[string]int)
	for _, app := range repo.db.applications {
		counts[string(app.Status)]++
	}
	return counts, nil
}

func (repo *activityRepository) CountApplicationsPerDay(_ context.Context, from time.Time) ([]activity.DayCount, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byDay := make(map[time.Time]int)
	for _, app := range repo.db.applications {
		if !app.CreatedAt.Before(from) {
			byDay[core.StartOfDay(app.CreatedAt)]++
		}
	}
	counts := make([]activity.DayCount, 0, len(byDay))
	for day, n := range byDay {
		counts = append(counts, activity.DayCount{Day: day, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Day.Before(counts[j].Day) })
	return counts, nil
}

func (repo *activityRepository) CountInterviewsBetween(_ context.Context, from, to time.Time) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, iv := range repo.db.interviews {
		if iv.Outcome != interview.OutcomeCancelled && inRange(iv.ScheduledAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (repo *activityRepository) CountCallsByStatus(_ context.Context) (map[string]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[string]int)
	for _, c := range repo.db.calls {
		counts[string(c.Status)]++
	}
	return counts, nil
}

func (repo *activityRepository) UserActivities(_ context.Context, since time.Time) ([]activity.UserActivity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byUser := make(map[string]*activity.UserActivity, len(repo.db.users))
	for _, usr := range repo.db.users {
		if usr.IsActive {
			byUser[usr.ID] = &activity.UserActivity{UserID: usr.ID, Name: usr.Name, Email: usr.Email, Role: int(usr.Role)}
		}
	}

	for _, app := range repo.db.applications {
		ua, ok := byUser[app.UserID]
		if !ok {
			continue
		}
		if !app.CreatedAt.Before(since) {
			ua.Applications++
		}
		if app.Status.IsOffer() && !app.UpdatedAt.Before(since) {
			ua.Offers++
		}
	}
	for _, iv := range repo.db.interviews {
		if ua, ok := byUser[iv.UserID]; ok && !iv.CreatedAt.Before(since) {
			ua.Interviews++
		}
	}
	for _, c := range repo.db.calls {
		ua, ok := byUser[c.CallerID]
		if !ok {
			continue
		}
		if !c.CreatedAt.Before(since) {
			ua.CallsScheduled++
		}
		if c.Status == call.StatusCompleted && c.CompletedAt.Valid && !c.CompletedAt.Time.Before(since) {
			ua.CallsCompleted++
		}
	}

	activities := make([]activity.UserActivity, 0, len(byUser))
	for _, ua := range byUser {
		activities = append(activities, *ua)
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].UserID < activities[j].UserID })
	return activities, nil
}
