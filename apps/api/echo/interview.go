package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/interview"
)

type interviewApi struct {
	svc      *interview.Service
	metrics  *metrics
	validate *validator.Validate
}

func registerInterviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *interview.Service, m *metrics, validate *validator.Validate) {
	api := interviewApi{svc: svc, metrics: m, validate: validate}

	ig := g.Group("/interviews", jwt)
	ig.GET("", api.query)
	ig.POST("", api.create)

	dg := ig.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *interviewApi) query(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	filter := new(interview.QueryFilter)
	var outcomes []string
	err = echo.QueryParamsBinder(ctx).
		String("user", &filter.UserID).
		String("application", &filter.ApplicationID).
		Strings("outcome", &outcomes).
		CustomFunc(timeParam("from", &filter.From)).
		CustomFunc(timeParam("to", &filter.To)).
		BindError()
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		filter.Outcomes = append(filter.Outcomes, interview.Outcome(o))
	}
	if scope := ownerScope(usr); scope != "" {
		filter.UserID = scope
	}

	ordering, page, err := bindList(ctx)
	if err != nil {
		return err
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	}

	ivs, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying interviews")
	}
	return listResponse(ctx, ivs, total)
}

func (api *interviewApi) create(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var data interview.NewInterview
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInterview")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	iv, err := api.svc.Create(ctx.Request().Context(), usr.ID, ownerScope(usr), data)
	if err != nil {
		return errors.Wrap(err, "scheduling interview")
	}
	api.metrics.interviewsScheduled.Inc()
	return ctx.JSON(http.StatusCreated, iv)
}

func (api *interviewApi) retrieve(ctx echo.Context) error {
	iv, err := contextObject[interview.Interview](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, iv)
}

func (api *interviewApi) update(ctx echo.Context) error {
	iv, err := contextObject[interview.Interview](ctx)
	if err != nil {
		return err
	}

	var data interview.UpdateInterview
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInterview")
	}
	if err = data.Validate(iv, api.validate); err != nil {
		return err
	}

	iv, err = api.svc.Update(ctx.Request().Context(), iv, data)
	if err != nil {
		return errors.Wrap(err, "updating interview")
	}
	return ctx.JSON(http.StatusOK, iv)
}

func (api *interviewApi) destroy(ctx echo.Context) error {
	iv, err := contextObject[interview.Interview](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), iv); err != nil {
		return errors.Wrap(err, "deleting interview")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *interviewApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := contextUser(ctx)
		if err != nil {
			return err
		}
		iv, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), ownerScope(usr))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding interview")
		}
		ctx.Set(contextObjectKey, iv)
		return next(ctx)
	}
}
