package echoapi

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// jsonSerializer implements echo.JSONSerializer with goccy/go-json.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(ctx echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(ctx.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(ctx echo.Context, i interface{}) error {
	err := json.NewDecoder(ctx.Request().Body).Decode(i)

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &typeErr):
		return echo.NewHTTPError(
			http.StatusBadRequest,
			fmt.Sprintf("invalid type for %s: expected %v, got %v", typeErr.Field, typeErr.Type, typeErr.Value),
		).SetInternal(err)
	case errors.As(err, &syntaxErr):
		return echo.NewHTTPError(
			http.StatusBadRequest,
			fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset),
		).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "malformed body").SetInternal(err)
}
