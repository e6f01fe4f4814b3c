package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/interview"
)

type applicationApi struct {
	svc        *application.Service
	interviews *interview.Service
	feed       *activity.Service
	metrics    *metrics
	validate   *validator.Validate
}

func registerApplicationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *application.Service,
	interviews *interview.Service,
	feed *activity.Service,
	m *metrics,
	validate *validator.Validate,
) {
	api := applicationApi{
		svc:        svc,
		interviews: interviews,
		feed:       feed,
		metrics:    m,
		validate:   validate,
	}

	ag := g.Group("/applications", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create)

	dg := ag.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/interviews", api.queryInterviews)
	dg.GET("/events", api.queryEvents)
}

func (api *applicationApi) query(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	filter := new(application.QueryFilter)
	var statuses []string
	err = echo.QueryParamsBinder(ctx).
		String("user", &filter.UserID).
		Strings("status", &statuses).
		String("search", &filter.Search).
		CustomFunc(timeParam("applied_from", &filter.AppliedFrom)).
		CustomFunc(timeParam("applied_to", &filter.AppliedTo)).
		BindError()
	if err != nil {
		return err
	}
	for _, s := range statuses {
		filter.Statuses = append(filter.Statuses, application.Status(s))
	}
	if scope := ownerScope(usr); scope != "" {
		filter.UserID = scope
	}

	ordering, page, err := bindList(ctx)
	if err != nil {
		return err
	}

	apps, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	return listResponse(ctx, apps, total)
}

func (api *applicationApi) create(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var data application.NewApplication
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating application")
	}
	api.metrics.applicationsCreated.Inc()
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	app, err := contextObject[application.Application](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) update(ctx echo.Context) error {
	app, err := contextObject[application.Application](ctx)
	if err != nil {
		return err
	}
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var data application.UpdateApplication
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateApplication")
	}
	if err = data.Validate(app, api.validate); err != nil {
		return err
	}

	app, err = api.svc.Update(ctx.Request().Context(), usr.ID, app, data)
	if err != nil {
		return errors.Wrap(err, "updating application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) destroy(ctx echo.Context) error {
	app, err := contextObject[application.Application](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), app); err != nil {
		return errors.Wrap(err, "deleting application")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *applicationApi) queryInterviews(ctx echo.Context) error {
	app, err := contextObject[application.Application](ctx)
	if err != nil {
		return err
	}

	ordering, page, err := bindList(ctx)
	if err != nil {
		return err
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	}

	ivs, total, err := api.interviews.Query(ctx.Request().Context(), &interview.QueryFilter{ApplicationID: app.ID}, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying interviews")
	}
	return listResponse(ctx, ivs, total)
}

func (api *applicationApi) queryEvents(ctx echo.Context) error {
	app, err := contextObject[application.Application](ctx)
	if err != nil {
		return err
	}

	filter := activity.FeedFilter{SubjectType: activity.SubjectApplication, SubjectID: app.ID}
	err = echo.QueryParamsBinder(ctx).
		Int("limit", &filter.Limit).
		CustomFunc(timeParam("before", &filter.Before)).
		BindError()
	if err != nil {
		return err
	}

	events, err := api.feed.Feed(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying application events")
	}
	return feedResponse(ctx, events)
}

// objectMiddleware loads the `:id` application when the context user may see it.
func (api *applicationApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := contextUser(ctx)
		if err != nil {
			return err
		}
		app, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), ownerScope(usr))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding application")
		}
		ctx.Set(contextObjectKey, app)
		return next(ctx)
	}
}
