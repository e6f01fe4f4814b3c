package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core/user"
)

const contextObjectKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

// contextObject returns the object loaded by a detail middleware.
func contextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return obj, nil
}

// requireRole lets through users holding at least the given role.
func requireRole(min user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := contextUser(ctx)
			if err != nil {
				return err
			}
			if usr.Role < min {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// ownerScope is the owner filter applied to the lookups of usr; admins see everything.
func ownerScope(usr user.User) string {
	if usr.IsAdmin() {
		return ""
	}
	return usr.ID
}
