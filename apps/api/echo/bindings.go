package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/jobtrack/core"
)

const (
	orderingParam = "ordering"
	dateLayout    = "2006-01-02"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindList reads the ordering & page shared by every list endpoint.
func bindList(ctx echo.Context) ([]core.DBOrdering, core.Page, error) {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	var page core.Page
	err := echo.QueryParamsBinder(ctx).
		Int("limit", &page.Limit).
		Int("offset", &page.Offset).
		BindError()
	return ordering.Orderings, page, err
}

// timeParam accepts RFC 3339 timestamps or plain dates (UTC midnight).
func timeParam(name string, dest *time.Time) (string, func([]string) []error) {
	return name, func(values []string) []error {
		t, err := parseTime(values[0])
		if err != nil {
			return []error{echo.NewBindingError(name, values, "invalid time", err)}
		}
		*dest = t
		return nil
	}
}

// dayEndParam is timeParam for inclusive upper bounds: a plain date covers that whole day.
func dayEndParam(name string, dest *time.Time) (string, func([]string) []error) {
	return name, func(values []string) []error {
		t, err := parseTime(values[0])
		if err != nil {
			return []error{echo.NewBindingError(name, values, "invalid time", err)}
		}
		if _, err = time.Parse(dateLayout, values[0]); err == nil {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond) // postgres keeps microseconds
		}
		*dest = t
		return nil
	}
}

func boolParam(name string, dest **bool) (string, func([]string) []error) {
	return name, func(values []string) []error {
		b, err := strconv.ParseBool(values[0])
		if err != nil {
			return []error{echo.NewBindingError(name, values, "invalid boolean", err)}
		}
		*dest = &b
		return nil
	}
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// listResponse writes items with the total count of the unpaged list in X-Total-Count.
func listResponse[T any](ctx echo.Context, items []T, total int) error {
	if items == nil {
		items = []T{}
	}
	ctx.Response().Header().Set(headerTotalCount, strconv.Itoa(total))
	return ctx.JSON(http.StatusOK, items)
}

// feedResponse writes a `before`/`limit` window. There is no total to report.
func feedResponse[T any](ctx echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return ctx.JSON(http.StatusOK, items)
}
