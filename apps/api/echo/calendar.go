package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/calendar"
	"github.com/trezcool/jobtrack/core/dashboard"
	"github.com/trezcool/jobtrack/core/user"
)

type calendarApi struct {
	svc   *calendar.Service
	dash  *dashboard.Service
	users *user.Service
}

func registerCalendarAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *calendar.Service, dash *dashboard.Service, users *user.Service) {
	api := calendarApi{svc: svc, dash: dash, users: users}

	g.GET("/calendar", api.view, jwt)
	g.GET("/dashboard", api.dashboard, jwt)
}

// view shows the interviews of the context user, plus their calls when they are a caller.
// Admins may look at another user's calendar with `?user=`.
func (api *calendarApi) view(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var (
		q      calendar.Query
		userID string
	)
	err = echo.QueryParamsBinder(ctx).
		String("user", &userID).
		Bool("include_ended", &q.IncludeEnded).
		CustomFunc(timeParam("from", &q.From)).
		CustomFunc(timeParam("to", &q.To)).
		BindError()
	if err != nil {
		return err
	}

	owner := usr
	if userID != "" && userID != usr.ID {
		if !usr.IsAdmin() {
			return errHttpNotFound
		}
		if owner, err = api.users.GetByID(ctx.Request().Context(), userID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding user by ID")
		}
	}
	q.UserID = owner.ID
	q.WithCalls = owner.Role >= user.RoleCaller

	view, err := api.svc.View(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "building calendar")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *calendarApi) dashboard(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	dash, err := api.dash.ForUser(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
