package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/user"
)

type adminApi struct {
	svc *activity.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *activity.Service) {
	api := adminApi{svc: svc}

	ag := g.Group("/admin", jwt, requireRole(user.RoleAdmin))
	ag.GET("/stats", api.stats)
	ag.GET("/activity", api.activity)
	ag.GET("/scores", api.scores)
}

func (api *adminApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context(), core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// activity is the global feed, newest first. Pages are walked with `before`.
func (api *adminApi) activity(ctx echo.Context) error {
	var (
		filter activity.FeedFilter
		kinds  []string
	)
	err := echo.QueryParamsBinder(ctx).
		String("actor", &filter.ActorID).
		Strings("kind", &kinds).
		String("subject_id", &filter.SubjectID).
		Int("limit", &filter.Limit).
		CustomFunc(timeParam("before", &filter.Before)).
		BindError()
	if err != nil {
		return err
	}
	for _, k := range kinds {
		filter.Kinds = append(filter.Kinds, activity.Kind(k))
	}
	filter.SubjectType = activity.SubjectType(ctx.QueryParam("subject_type"))

	events, err := api.svc.Feed(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying activity")
	}
	return feedResponse(ctx, events)
}

// scores ranks users over `since` (default: the last 30 days).
func (api *adminApi) scores(ctx echo.Context) error {
	var (
		since time.Time
		limit int
	)
	err := echo.QueryParamsBinder(ctx).
		Int("limit", &limit).
		CustomFunc(timeParam("since", &since)).
		BindError()
	if err != nil {
		return err
	}
	if since.IsZero() {
		since = core.NowFunc().Add(-activity.DefaultScoreWindow)
	}

	scores, err := api.svc.Scores(ctx.Request().Context(), since, limit)
	if err != nil {
		return errors.Wrap(err, "computing scores")
	}
	return feedResponse(ctx, scores)
}
