package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/calendar"
	"github.com/trezcool/jobtrack/core/dashboard"
	"github.com/trezcool/jobtrack/core/interview"
	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/testutil"
)

func entryIDs(entries []calendar.Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func Test_calendarApi_view(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true)
	carl := testutil.CreateUser(t, env.UserRepo, "Carl", "carl@test.cd", testutil.Password, user.RoleCaller, true)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", testutil.Password, user.RoleAdmin, true)

	day := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 10)
	window := fmt.Sprintf("from=%s&to=%s", day.Format("2006-01-02"), day.AddDate(0, 0, 1).Format("2006-01-02"))

	carlApp := testutil.CreateApplication(t, env.Applications, carl.ID, "Acme", "Recruiter", "")
	morning := testutil.CreateInterview(t, env.Interviews, carl, carlApp.ID, day.Add(9*time.Hour), 60)
	afternoon := testutil.CreateInterview(t, env.Interviews, carl, carlApp.ID, day.Add(14*time.Hour), 30)
	clash := testutil.ScheduleCall(t, env.Calls, carl.ID, "Grace", day.Add(9*time.Hour+30*time.Minute), 15)
	testutil.ScheduleCall(t, env.Calls, carl.ID, "Alan", day.AddDate(0, 0, 2).Add(9*time.Hour), 15) // out of window

	adaApp := testutil.CreateApplication(t, env.Applications, ada.ID, "Globex", "Gopher", "")
	adaIv := testutil.CreateInterview(t, env.Interviews, ada, adaApp.ID, day.Add(9*time.Hour), 30)
	cancelled := testutil.CreateInterview(t, env.Interviews, ada, adaApp.ID, day.Add(9*time.Hour+15*time.Minute), 30)
	_, err := env.Interviews.Update(context.Background(), cancelled, interview.UpdateInterview{
		ScheduledAt:     cancelled.ScheduledAt,
		DurationMinutes: cancelled.DurationMinutes,
		Kind:            cancelled.Kind,
		Outcome:         interview.OutcomeCancelled,
	})
	require.NoError(t, err)

	adaToken := getToken(t, env.Conf, ada)
	carlToken := getToken(t, env.Conf, carl)
	adminToken := getToken(t, env.Conf, admin)

	view := func(t *testing.T, token, query string) calendar.View {
		t.Helper()
		var v calendar.View
		rec := do(t, srv, http.MethodGet, "/v1/calendar?"+query, token, nil, &v)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return v
	}

	t.Run("caller sees interviews and calls", func(t *testing.T) {
		v := view(t, carlToken, window)
		assert.True(t, day.Equal(v.From))
		assert.True(t, day.AddDate(0, 0, 1).Equal(v.To))
		assert.Equal(t, []string{morning.ID, clash.ID, afternoon.ID}, entryIDs(v.Entries))
		assert.Equal(t, calendar.KindCall, v.Entries[1].Kind)

		require.Len(t, v.Conflicts, 1)
		assert.True(t, day.Add(9*time.Hour+30*time.Minute).Equal(v.Conflicts[0].BucketStart))
		assert.Equal(t, []string{morning.ID, clash.ID}, v.Conflicts[0].EntryIDs)
		assert.True(t, v.Entries[0].Conflict)
		assert.True(t, v.Entries[1].Conflict)
		assert.False(t, v.Entries[2].Conflict)
	})

	t.Run("cancelled entries are skipped", func(t *testing.T) {
		v := view(t, adaToken, window)
		assert.Equal(t, []string{adaIv.ID}, entryIDs(v.Entries))
		assert.Empty(t, v.Conflicts)
	})

	t.Run("include ended", func(t *testing.T) {
		v := view(t, adaToken, window+"&include_ended=true")
		assert.Equal(t, []string{adaIv.ID, cancelled.ID}, entryIDs(v.Entries))
		require.Len(t, v.Conflicts, 1)
		assert.Equal(t, []string{adaIv.ID, cancelled.ID}, v.Conflicts[0].EntryIDs)
	})

	t.Run("admin looks at another user", func(t *testing.T) {
		v := view(t, adminToken, window+"&user="+carl.ID)
		assert.Equal(t, []string{morning.ID, clash.ID, afternoon.ID}, entryIDs(v.Entries))
	})

	t.Run("defaults to the current week", func(t *testing.T) {
		v := view(t, adaToken, "")
		assert.True(t, core.StartOfWeek(time.Now()).Equal(v.From))
		assert.True(t, v.From.AddDate(0, 0, 7).Equal(v.To))
	})

	tests := []httpTest{
		{name: "no token", path: "/v1/calendar", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name:     "other user",
			path:     "/v1/calendar?user=" + carl.ID,
			token:    adaToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errNotFound),
		},
		{
			name:     "unknown user",
			path:     "/v1/calendar?user=3f1e9b6a-7c1d-4f5e-9a57-0b8a1c2d3e4f",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errNotFound),
		},
		{
			name:     "invalid bound",
			path:     "/v1/calendar?to=tomorrow",
			token:    adaToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"to": "invalid value"}`),
		},
	}
	runHTTPTests(t, srv, tests)
}

func Test_calendarApi_dashboard(t *testing.T) {
	env, srv := setup(t)
	ada := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true)
	carl := testutil.CreateUser(t, env.UserRepo, "Carl", "carl@test.cd", testutil.Password, user.RoleCaller, true)

	app := testutil.CreateApplication(t, env.Applications, ada.ID, "Acme", "Gopher", "")
	testutil.CreateApplication(t, env.Applications, ada.ID, "Globex", "SRE", "rejected")
	iv := testutil.CreateInterview(t, env.Interviews, ada, app.ID, time.Now().Add(24*time.Hour), 45)
	testutil.CreateInterview(t, env.Interviews, ada, app.ID, time.Now().AddDate(0, 0, 30), 45) // beyond the horizon
	testutil.ScheduleCall(t, env.Calls, carl.ID, "Grace", time.Now().AddDate(0, 0, 5), 15)

	t.Run("job seeker", func(t *testing.T) {
		var dash dashboard.Dashboard
		rec := do(t, srv, http.MethodGet, "/v1/dashboard", getToken(t, env.Conf, ada), nil, &dash)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, 2, dash.TotalApplications)
		assert.Equal(t, 0, dash.ApplicationsByStatus["applied"])
		assert.Equal(t, 1, dash.ApplicationsByStatus["interviewing"])
		assert.Equal(t, 1, dash.ApplicationsByStatus["rejected"])
		require.Len(t, dash.UpcomingInterviews, 1)
		assert.Equal(t, iv.ID, dash.UpcomingInterviews[0].ID)
		assert.NotEmpty(t, dash.RecentActivity)
		assert.NotContains(t, rec.Body.String(), `"calls_by_status"`)
	})

	t.Run("caller", func(t *testing.T) {
		var dash dashboard.Dashboard
		rec := do(t, srv, http.MethodGet, "/v1/dashboard", getToken(t, env.Conf, carl), nil, &dash)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, 0, dash.TotalApplications)
		assert.Empty(t, dash.UpcomingInterviews)
		assert.Equal(t, 1, dash.CallsByStatus["scheduled"])
		assert.Equal(t, 0, dash.CallsByStatus["completed"])
		require.Len(t, dash.RecentActivity, 1)
		assert.Equal(t, "Carl", dash.RecentActivity[0].ActorName)
	})

	t.Run("no token", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/v1/dashboard", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_calendarApi_viewWindowStart(t *testing.T) {
	env, srv := setup(t)
	carl := testutil.CreateUser(t, env.UserRepo, "Carl", "carl@test.cd", testutil.Password, user.RoleCaller, true)

	day := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 10)
	app := testutil.CreateApplication(t, env.Applications, carl.ID, "Acme", "Recruiter", "")
	overnight := testutil.CreateInterview(t, env.Interviews, carl, app.ID, day.Add(-15*time.Minute), 60)
	first := testutil.ScheduleCall(t, env.Calls, carl.ID, "Grace", day, 15)
	testutil.ScheduleCall(t, env.Calls, carl.ID, "Linus", day.Add(-20*time.Minute), 15) // over before the window

	var v calendar.View
	query := fmt.Sprintf("from=%s&to=%s", day.Format("2006-01-02"), day.AddDate(0, 0, 1).Format("2006-01-02"))
	rec := do(t, srv, http.MethodGet, "/v1/calendar?"+query, getToken(t, env.Conf, carl), nil, &v)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{overnight.ID, first.ID}, entryIDs(v.Entries))
	require.Len(t, v.Conflicts, 1)
	assert.True(t, day.Equal(v.Conflicts[0].BucketStart))
	assert.Equal(t, []string{overnight.ID, first.ID}, v.Conflicts[0].EntryIDs)
}
