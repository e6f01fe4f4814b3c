package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/user"
)

type callApi struct {
	svc      *call.Service
	metrics  *metrics
	validate *validator.Validate
}

func registerCallAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *call.Service, m *metrics, validate *validator.Validate) {
	api := callApi{svc: svc, metrics: m, validate: validate}

	cg := g.Group("/calls", jwt, requireRole(user.RoleCaller))
	cg.GET("", api.query)
	cg.POST("", api.create)

	dg := cg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/complete", api.complete)
}

func (api *callApi) query(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	filter := new(call.QueryFilter)
	var statuses []string
	err = echo.QueryParamsBinder(ctx).
		String("caller", &filter.CallerID).
		Strings("status", &statuses).
		String("search", &filter.Search).
		CustomFunc(timeParam("from", &filter.From)).
		CustomFunc(timeParam("to", &filter.To)).
		BindError()
	if err != nil {
		return err
	}
	for _, s := range statuses {
		filter.Statuses = append(filter.Statuses, call.Status(s))
	}
	if scope := ownerScope(usr); scope != "" {
		filter.CallerID = scope
	}

	ordering, page, err := bindList(ctx)
	if err != nil {
		return err
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	}

	calls, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering, page)
	if err != nil {
		return errors.Wrap(err, "querying calls")
	}
	return listResponse(ctx, calls, total)
}

func (api *callApi) create(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var data call.NewCall
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCall")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Schedule(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "scheduling call")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *callApi) retrieve(ctx echo.Context) error {
	c, err := contextObject[call.Call](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) update(ctx echo.Context) error {
	c, err := contextObject[call.Call](ctx)
	if err != nil {
		return err
	}

	var data call.UpdateCall
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCall")
	}
	if err = data.Validate(c, api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating call")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) complete(ctx echo.Context) error {
	c, err := contextObject[call.Call](ctx)
	if err != nil {
		return err
	}
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var data call.CompleteCall
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteCall")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Complete(ctx.Request().Context(), usr.ID, c, data)
	if err != nil {
		return errors.Wrap(err, "completing call")
	}
	api.metrics.callsCompleted.Inc()
	return ctx.JSON(http.StatusOK, c)
}

func (api *callApi) destroy(ctx echo.Context) error {
	c, err := contextObject[call.Call](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c); err != nil {
		return errors.Wrap(err, "deleting call")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *callApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := contextUser(ctx)
		if err != nil {
			return err
		}
		c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), ownerScope(usr))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding call")
		}
		ctx.Set(contextObjectKey, c)
		return next(ctx)
	}
}
