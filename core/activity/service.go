package activity

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
)

const (
	DefaultScoreWindow = 30 * 24 * time.Hour
	DefaultScoreLimit  = 10
	MaxScoreLimit      = 100

	statsDays          = 14
	upcomingWindowDays = 7
)

type (
	// Recorder is implemented by Service; other services use it to feed the activity log.
	Recorder interface {
		Record(ctx context.Context, ne NewEvent)
	}

	Repository interface {
		CreateEvent(ctx context.Context, ev Event) (Event, error)
		// QueryEvents returns at most filter.Limit events, newest first.
		QueryEvents(ctx context.Context, filter FeedFilter) ([]Event, error)
	}

	// StatsRepository runs the aggregation queries of the admin overview.
	StatsRepository interface {
		CountUsersByRole(ctx context.Context) ([]RoleCount, error)
		CountActiveUsers(ctx context.Context) (int, error)
		CountApplicationsByStatus(ctx context.Context) (map[string]int, error)
		// CountApplicationsPerDay groups applications created since from by UTC day; days without applications are omitted.
		CountApplicationsPerDay(ctx context.Context, from time.Time) ([]DayCount, error)
		CountInterviewsBetween(ctx context.Context, from, to time.Time) (int, error)
		CountCallsByStatus(ctx context.Context) (map[string]int, error)
		// UserActivities returns the counters of every active user since the given time.
		UserActivities(ctx context.Context, since time.Time) ([]UserActivity, error)
	}

	Service struct {
		repo   Repository
		stats  StatsRepository
		logger core.Logger
	}
)

func NewService(repo Repository, stats StatsRepository, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(stats, "stats"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, stats: stats, logger: logger}
}

// Record stores the event. Failures are logged, never returned: the feed is best effort.
func (svc *Service) Record(ctx context.Context, ne NewEvent) {
	ev := Event{
		ActorID:     ne.ActorID,
		Kind:        ne.Kind,
		SubjectType: ne.SubjectType,
		SubjectID:   ne.SubjectID,
		Summary:     ne.Summary,
		CreatedAt:   core.NowFunc(),
	}
	if _, err := svc.repo.CreateEvent(ctx, ev); err != nil {
		svc.logger.Error("recording activity: "+string(ne.Kind), errors.WithStack(err))
	}
}

func (svc *Service) Feed(ctx context.Context, filter FeedFilter) ([]Event, error) {
	filter.Clean()
	events, err := svc.repo.QueryEvents(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (svc *Service) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var (
		stats Stats
		err   error
	)

	if stats.UsersByRole, err = svc.stats.CountUsersByRole(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting users by role")
	}
	for _, rc := range stats.UsersByRole {
		stats.TotalUsers += rc.Count
	}
	if stats.ActiveUsers, err = svc.stats.CountActiveUsers(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting active users")
	}

	if stats.ApplicationsByStatus, err = svc.stats.CountApplicationsByStatus(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting applications by status")
	}
	for _, n := range stats.ApplicationsByStatus {
		stats.TotalApplications += n
	}
	stats.OfferRate = offerRate(stats.ApplicationsByStatus, stats.TotalApplications)

	from := core.StartOfDay(now).AddDate(0, 0, -(statsDays - 1))
	perDay, err := svc.stats.CountApplicationsPerDay(ctx, from)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting applications per day")
	}
	stats.ApplicationsPerDay = fillDays(from, statsDays, perDay)

	if stats.UpcomingInterviews, err = svc.stats.CountInterviewsBetween(ctx, now, now.AddDate(0, 0, upcomingWindowDays)); err != nil {
		return Stats{}, errors.Wrap(err, "counting upcoming interviews")
	}
	if stats.CallsByStatus, err = svc.stats.CountCallsByStatus(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting calls by status")
	}
	return stats, nil
}

// Scores ranks active users by their activity score since the given time.
func (svc *Service) Scores(ctx context.Context, since time.Time, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = DefaultScoreLimit
	} else if limit > MaxScoreLimit {
		limit = MaxScoreLimit
	}

	activities, err := svc.stats.UserActivities(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying user activities")
	}
	scores := RankScores(activities)
	if len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

// RankScores sorts by score desc, then name, then user ID.
func RankScores(activities []UserActivity) []Score {
	scores := make([]Score, 0, len(activities))
	for _, ua := range activities {
		scores = append(scores, Score{UserActivity: ua, Score: ua.Weighted()})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].Name != scores[j].Name {
			return scores[i].Name < scores[j].Name
		}
		return scores[i].UserID < scores[j].UserID
	})
	return scores
}

func offerRate(byStatus map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	offers := byStatus["offer"] + byStatus["accepted"]
	return math.Round(float64(offers)/float64(total)*10000) / 10000
}

// fillDays returns n consecutive days starting at from, with zero counts for missing days.
func fillDays(from time.Time, n int, counts []DayCount) []DayCount {
	byDay := make(map[time.Time]int, len(counts))
	for _, dc := range counts {
		byDay[core.StartOfDay(dc.Day)] += dc.Count
	}
	days := make([]DayCount, n)
	for i := range days {
		day := from.AddDate(0, 0, i)
		days[i] = DayCount{Day: day, Count: byDay[day]}
	}
	return days
}
