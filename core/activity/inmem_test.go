package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/testutil"
)

func TestScoresAndStats(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	now := time.Date(2024, time.May, 8, 8, 0, 0, 0, time.UTC)
	testutil.FreezeTime(t, now)

	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@example.com", testutil.Password, user.RoleUser, true)
	bob := testutil.CreateUser(t, env.UserRepo, "Bob", "bob@example.com", testutil.Password, user.RoleUser, true)
	cal := testutil.CreateUser(t, env.UserRepo, "Cal", "cal@example.com", testutil.Password, user.RoleCaller, true)
	testutil.CreateUser(t, env.UserRepo, "Off", "off@example.com", testutil.Password, user.RoleAdmin, false)

	// ada: 2 applications, 1 interview, 1 offer = 2 + 3 + 5
	app := testutil.CreateApplication(t, env.Applications, ada.ID, "Acme", "Engineer", "")
	testutil.CreateApplication(t, env.Applications, ada.ID, "Globex", "Engineer", application.StatusOffer)
	testutil.CreateInterview(t, env.Interviews, ada, app.ID, now.Add(time.Hour), 30)

	// bob: 1 application
	testutil.CreateApplication(t, env.Applications, bob.ID, "Initech", "Engineer", application.StatusRejected)

	// cal: 3 calls scheduled, 1 completed = 3 + 2
	c := testutil.ScheduleCall(t, env.Calls, cal.ID, "Grace", now.Add(time.Hour), 15)
	testutil.ScheduleCall(t, env.Calls, cal.ID, "Linus", now.Add(2*time.Hour), 15)
	testutil.ScheduleCall(t, env.Calls, cal.ID, "Ken", now.Add(3*time.Hour), 15)
	_, err := env.Calls.Complete(ctx, cal.ID, c, call.CompleteCall{Outcome: "done"})
	require.NoError(t, err)

	scores, err := env.Activity.Scores(ctx, now.Add(-activity.DefaultScoreWindow), 0)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "Ada", scores[0].Name)
	assert.Equal(t, 10, scores[0].Score)
	assert.Equal(t, "Cal", scores[1].Name)
	assert.Equal(t, 5, scores[1].Score)
	assert.Equal(t, "Bob", scores[2].Name)
	assert.Equal(t, 1, scores[2].Score)

	// nothing happened after now
	scores, err = env.Activity.Scores(ctx, now.Add(time.Minute), 2)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Ada", scores[0].Name)
	assert.Zero(t, scores[0].Score)

	stats, err := env.Activity.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 3, stats.ActiveUsers)
	assert.Equal(t, 3, stats.TotalApplications)
	assert.Equal(t, 0.3333, stats.OfferRate)
	assert.Equal(t, 1, stats.UpcomingInterviews)
	assert.Equal(t, 2, stats.CallsByStatus["scheduled"])
	assert.Equal(t, 1, stats.CallsByStatus["completed"])
	require.Len(t, stats.ApplicationsPerDay, 14)
	assert.Equal(t, 3, stats.ApplicationsPerDay[13].Count)
	assert.Equal(t, time.Date(2024, time.May, 8, 0, 0, 0, 0, time.UTC), stats.ApplicationsPerDay[13].Day)
}
