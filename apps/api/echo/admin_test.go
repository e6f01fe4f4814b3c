package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/testutil"
)

type adminFixture struct {
	admin, ada, carl user.User
}

// seedActivity records 7 events: 4 by ada, 3 by carl.
func seedActivity(t *testing.T, env *testutil.Env) adminFixture {
	t.Helper()
	f := adminFixture{
		admin: testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", testutil.Password, user.RoleAdmin, true),
		ada:   testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true),
		carl:  testutil.CreateUser(t, env.UserRepo, "Carl", "carl@test.cd", testutil.Password, user.RoleCaller, true),
	}
	testutil.CreateUser(t, env.UserRepo, "Dan", "dan@test.cd", testutil.Password, user.RoleUser, false)

	acme := testutil.CreateApplication(t, env.Applications, f.ada.ID, "Acme", "Gopher", "")
	testutil.CreateApplication(t, env.Applications, f.ada.ID, "Globex", "SRE", "offer")
	testutil.CreateInterview(t, env.Interviews, f.ada, acme.ID, time.Now().Add(24*time.Hour), 60)

	c := testutil.ScheduleCall(t, env.Calls, f.carl.ID, "Grace", time.Now().Add(-time.Hour), 15)
	testutil.ScheduleCall(t, env.Calls, f.carl.ID, "Alan", time.Now().Add(time.Hour), 15)
	_, err := env.Calls.Complete(context.Background(), f.carl.ID, c, call.CompleteCall{Outcome: "interview booked"})
	require.NoError(t, err)
	return f
}

func Test_adminApi_permissions(t *testing.T) {
	env, srv := setup(t)
	f := seedActivity(t, env)
	adaToken := getToken(t, env.Conf, f.ada)
	carlToken := getToken(t, env.Conf, f.carl)

	var tests []httpTest
	for _, path := range []string{"/v1/admin/stats", "/v1/admin/activity", "/v1/admin/scores"} {
		tests = append(tests,
			httpTest{name: path + " no token", path: path, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
			httpTest{name: path + " job seeker", path: path, token: adaToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
			httpTest{name: path + " caller", path: path, token: carlToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		)
	}
	runHTTPTests(t, srv, tests)
}

func Test_adminApi_stats(t *testing.T) {
	env, srv := setup(t)
	f := seedActivity(t, env)

	var stats activity.Stats
	rec := do(t, srv, http.MethodGet, "/v1/admin/stats", getToken(t, env.Conf, f.admin), nil, &stats)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, 4, stats.TotalUsers)
	assert.Equal(t, 3, stats.ActiveUsers)
	assert.Equal(t, []activity.RoleCount{
		{Role: int(user.RoleUser), Count: 2},
		{Role: int(user.RoleCaller), Count: 1},
		{Role: int(user.RoleAdmin), Count: 1},
	}, stats.UsersByRole)
	assert.Equal(t, 2, stats.TotalApplications)
	assert.Equal(t, 1, stats.ApplicationsByStatus["interviewing"])
	assert.Equal(t, 1, stats.ApplicationsByStatus["offer"])
	assert.Equal(t, 0.5, stats.OfferRate)
	assert.Equal(t, 1, stats.UpcomingInterviews)
	assert.Equal(t, 1, stats.CallsByStatus["scheduled"])
	assert.Equal(t, 1, stats.CallsByStatus["completed"])

	require.Len(t, stats.ApplicationsPerDay, 14)
	assert.Equal(t, 2, stats.ApplicationsPerDay[13].Count)
	assert.Equal(t, 0, stats.ApplicationsPerDay[0].Count)
}

func Test_adminApi_activity(t *testing.T) {
	env, srv := setup(t)
	f := seedActivity(t, env)
	token := getToken(t, env.Conf, f.admin)

	feed := func(t *testing.T, query string) ([]activity.Event, string) {
		t.Helper()
		var events []activity.Event
		rec := do(t, srv, http.MethodGet, "/v1/admin/activity?"+query, token, nil, &events)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return events, rec.Header().Get("X-Total-Count")
	}
	kinds := func(events []activity.Event) []activity.Kind {
		res := make([]activity.Kind, 0, len(events))
		for _, ev := range events {
			res = append(res, ev.Kind)
		}
		return res
	}

	t.Run("newest first", func(t *testing.T) {
		events, total := feed(t, "")
		assert.Len(t, events, 7)
		assert.Empty(t, total) // cursor feed, no total
		assert.Equal(t, []activity.Kind{
			activity.KindCallCompleted,
			activity.KindCallScheduled,
			activity.KindCallScheduled,
			activity.KindInterviewScheduled,
			activity.KindStatusChanged,
			activity.KindApplicationCreated,
			activity.KindApplicationCreated,
		}, kinds(events))
		assert.Equal(t, "Carl", events[0].ActorName)
		assert.Equal(t, "Ada", events[6].ActorName)
	})

	t.Run("by actor", func(t *testing.T) {
		events, _ := feed(t, "actor="+f.ada.ID)
		assert.Len(t, events, 4)
		for _, ev := range events {
			assert.Equal(t, f.ada.ID, ev.ActorID)
		}
	})

	t.Run("by kind", func(t *testing.T) {
		events, _ := feed(t, "kind=call_scheduled&kind=call_completed")
		assert.Equal(t, []activity.Kind{activity.KindCallCompleted, activity.KindCallScheduled, activity.KindCallScheduled}, kinds(events))
	})

	t.Run("by subject type", func(t *testing.T) {
		events, _ := feed(t, "subject_type=interview")
		assert.Equal(t, []activity.Kind{activity.KindInterviewScheduled}, kinds(events))
	})

	t.Run("paging", func(t *testing.T) {
		first, total := feed(t, "limit=2")
		require.Len(t, first, 2)
		assert.Empty(t, total)

		rest, _ := feed(t, "before="+url.QueryEscape(first[1].CreatedAt.Format(time.RFC3339Nano)))
		assert.Len(t, rest, 5)
		for _, ev := range rest {
			assert.True(t, ev.CreatedAt.Before(first[1].CreatedAt))
		}
	})

	t.Run("invalid before", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/v1/admin/activity?before=now", token, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"before": "invalid value"}`, rec.Body.String())
	})
}

func Test_adminApi_scores(t *testing.T) {
	env, srv := setup(t)
	f := seedActivity(t, env)
	token := getToken(t, env.Conf, f.admin)

	t.Run("ranked", func(t *testing.T) {
		var scores []activity.Score
		rec := do(t, srv, http.MethodGet, "/v1/admin/scores", token, nil, &scores)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		require.Len(t, scores, 3) // inactive users are left out
		assert.Equal(t, f.ada.ID, scores[0].UserID)
		assert.Equal(t, 10, scores[0].Score) // 2 applications, 1 interview, 1 offer
		assert.Equal(t, f.carl.ID, scores[1].UserID)
		assert.Equal(t, 4, scores[1].Score) // 2 calls scheduled, 1 completed
		assert.Equal(t, 1, scores[1].CallsCompleted)
		assert.Equal(t, f.admin.ID, scores[2].UserID)
		assert.Equal(t, 0, scores[2].Score)
	})

	t.Run("limited", func(t *testing.T) {
		var scores []activity.Score
		rec := do(t, srv, http.MethodGet, "/v1/admin/scores?limit=1", token, nil, &scores)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, scores, 1)
		assert.Equal(t, f.ada.ID, scores[0].UserID)
	})

	t.Run("since the future", func(t *testing.T) {
		var scores []activity.Score
		since := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
		rec := do(t, srv, http.MethodGet, "/v1/admin/scores?since="+since, token, nil, &scores)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, scores, 3)
		for _, s := range scores {
			assert.Equal(t, 0, s.Score)
		}
	})

	t.Run("invalid since", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/v1/admin/scores?since=lastweek", token, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"since": "invalid value"}`, rec.Body.String())
	})
}

func Test_adminApi_malformedOwnerFilters(t *testing.T) {
	env, srv := setup(t)
	f := seedActivity(t, env)
	token := getToken(t, env.Conf, f.admin)

	tests := []httpTest{
		{name: "applications by user", path: "/v1/applications?user=abc", token: token, wantData: []byte(`[]`), wantTotal: "0"},
		{name: "interviews by user", path: "/v1/interviews?user=abc", token: token, wantData: []byte(`[]`), wantTotal: "0"},
		{name: "calls by caller", path: "/v1/calls?caller=abc", token: token, wantData: []byte(`[]`), wantTotal: "0"},
		{name: "activity by actor", path: "/v1/admin/activity?actor=abc", token: token, wantData: []byte(`[]`)},
		{name: "applications by owner", path: "/v1/applications?user=" + f.ada.ID, token: token, wantTotal: "2"},
	}
	runHTTPTests(t, srv, tests)
}
