package dashboard

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/interview"
	"github.com/trezcool/jobtrack/core/user"
)

const (
	upcomingDays   = 7
	upcomingLimit  = 5
	recentActivity = 10
)

type (
	Applications interface {
		CountByStatus(ctx context.Context, userID string) (map[application.Status]int, error)
	}

	Interviews interface {
		Upcoming(ctx context.Context, userID string, from time.Time, limit int) ([]interview.Interview, error)
	}

	Calls interface {
		CountByStatus(ctx context.Context, callerID string) (map[call.Status]int, error)
		Query(ctx context.Context, filter *call.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]call.Call, int, error)
	}

	Feed interface {
		Feed(ctx context.Context, filter activity.FeedFilter) ([]activity.Event, error)
	}

	Dashboard struct {
		TotalApplications    int                        `json:"total_applications"`
		ApplicationsByStatus map[application.Status]int `json:"applications_by_status"`
		UpcomingInterviews   []interview.Interview      `json:"upcoming_interviews"`
		RecentActivity       []activity.Event           `json:"recent_activity"`

		// callers only
		CallsByStatus map[call.Status]int `json:"calls_by_status,omitempty"`
		TodayCalls    []call.Call         `json:"today_calls,omitempty"`
	}

	Service struct {
		apps       Applications
		interviews Interviews
		calls      Calls
		feed       Feed
	}
)

func NewService(apps Applications, interviews Interviews, calls Calls, feed Feed) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(apps, "apps"),
		vala.IsNotNil(interviews, "interviews"),
		vala.IsNotNil(calls, "calls"),
		vala.IsNotNil(feed, "feed"),
	).CheckAndPanic()

	return &Service{apps: apps, interviews: interviews, calls: calls, feed: feed}
}

// ForUser builds the home dashboard of usr.
func (svc *Service) ForUser(ctx context.Context, usr user.User) (Dashboard, error) {
	var (
		dash Dashboard
		err  error
	)
	now := core.NowFunc()

	if dash.ApplicationsByStatus, err = svc.apps.CountByStatus(ctx, usr.ID); err != nil {
		return Dashboard{}, err
	}
	for _, n := range dash.ApplicationsByStatus {
		dash.TotalApplications += n
	}

	upcoming, err := svc.interviews.Upcoming(ctx, usr.ID, now, upcomingLimit)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying upcoming interviews")
	}
	horizon := now.AddDate(0, 0, upcomingDays)
	dash.UpcomingInterviews = make([]interview.Interview, 0, len(upcoming))
	for _, iv := range upcoming {
		if iv.ScheduledAt.Before(horizon) {
			dash.UpcomingInterviews = append(dash.UpcomingInterviews, iv)
		}
	}

	if dash.RecentActivity, err = svc.feed.Feed(ctx, activity.FeedFilter{ActorID: usr.ID, Limit: recentActivity}); err != nil {
		return Dashboard{}, err
	}

	if usr.Role >= user.RoleCaller {
		if dash.CallsByStatus, err = svc.calls.CountByStatus(ctx, usr.ID); err != nil {
			return Dashboard{}, err
		}
		today := core.StartOfDay(now)
		dash.TodayCalls, _, err = svc.calls.Query(
			ctx,
			&call.QueryFilter{CallerID: usr.ID, From: today, To: today.AddDate(0, 0, 1)},
			[]core.DBOrdering{{Field: "scheduled_at", Ascending: true}},
			core.Page{Limit: core.MaxPageLimit},
		)
		if err != nil {
			return Dashboard{}, errors.Wrap(err, "querying today's calls")
		}
	}
	return dash, nil
}
