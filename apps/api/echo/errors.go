package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
)

var (
	errMissingToken         = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errInvalidToken         = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests      = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := errorResponse(err, translator)

		if code == http.StatusInternalServerError {
			msg := http.StatusText(code)
			usr, _ := contextUser(ctx)
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func errorResponse(err error, translator ut.Translator) (int, interface{}) {
	var (
		bindErr  *echo.BindingError
		httpErr  *echo.HTTPError
		fldsErr  validator.ValidationErrors
		validErr *core.ValidationError
	)

	switch {
	case errors.As(err, &bindErr):
		return http.StatusBadRequest, echo.Map{bindErr.Field: "invalid value"}

	case errors.As(err, &httpErr):
		if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = herr
		}
		return httpErr.Code, httpErr.Message

	case errors.As(err, &fldsErr):
		fldErrs := make(map[string]string, len(fldsErr))
		for _, vErr := range fldsErr {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		}
		return http.StatusBadRequest, fldErrs

	case errors.As(err, &validErr):
		if len(validErr.Fields) > 0 {
			fldErrs := make(map[string]string, len(validErr.Fields))
			for _, fErr := range validErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return http.StatusBadRequest, fldErrs
		}
		return http.StatusBadRequest, validErr.Error()

	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errHttpNotFound.Message

	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, errHttpForbidden.Message
	}

	// any other error is a server error
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// contextUser returns the authenticated user; the zero User when the request is anonymous.
func contextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
