package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/interview"
	"github.com/trezcool/jobtrack/core/user"
)

// DB keeps every table behind a single lock so cascades stay consistent.
type DB struct {
	mutex        sync.RWMutex
	users        map[string]*user.User
	applications map[string]*application.Application
	interviews   map[string]*interview.Interview
	calls        map[string]*call.Call
	activities   []activity.Event
}

func Open() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		applications: make(map[string]*application.Application),
		interviews:   make(map[string]*interview.Interview),
		calls:        make(map[string]*call.Call),
	}
}

func newID() string {
	return uuid.New().String()
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// inRange reports whether t is in [from, to) with zero bounds left open.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// compareFunc compares two rows on a single field; it returns -1, 0 or 1.
type compareFunc[T any] func(a, b T) int

func compareStrings(a, b string) int { return strings.Compare(a, b) }

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// sortRows applies the whitelisted orderings, falling back to fallback; unknown fields are skipped.
func sortRows[T any](rows []T, ordering []core.DBOrdering, fields map[string]compareFunc[T], fallback []core.DBOrdering) {
	cmps := make([]func(a, b T) int, 0, len(ordering))
	collect := func(ords []core.DBOrdering) {
		for _, ord := range ords {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			asc := ord.Ascending
			cmps = append(cmps, func(a, b T) int {
				if asc {
					return cmp(a, b)
				}
				return -cmp(a, b)
			})
		}
	}
	collect(ordering)
	if len(cmps) == 0 {
		collect(fallback)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, cmp := range cmps {
			if c := cmp(rows[i], rows[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func paginate[T any](rows []T, page core.Page) []T {
	start, end := page.Slice(len(rows))
	return rows[start:end]
}
