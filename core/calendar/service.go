package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/interview"
)

type (
	Interviews interface {
		Query(ctx context.Context, filter *interview.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]interview.Interview, int, error)
	}

	Calls interface {
		Query(ctx context.Context, filter *call.QueryFilter, ordering []core.DBOrdering, page core.Page) ([]call.Call, int, error)
	}

	// View is a calendar window with its detected conflicts.
	View struct {
		From      time.Time  `json:"from"`
		To        time.Time  `json:"to"`
		Entries   []Entry    `json:"entries"`
		Conflicts []Conflict `json:"conflicts"`
	}

	Query struct {
		UserID       string
		WithCalls    bool
		From         time.Time
		To           time.Time
		IncludeEnded bool // cancelled interviews & calls are skipped unless set
	}

	Service struct {
		interviews Interviews
		calls      Calls
	}
)

func NewService(interviews Interviews, calls Calls) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(interviews, "interviews"),
		vala.IsNotNil(calls, "calls"),
	).CheckAndPanic()

	return &Service{interviews: interviews, calls: calls}
}

// Window defaults to the current week (Monday to Monday, UTC).
func Window(from, to, now time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = core.StartOfWeek(now)
	}
	if to.IsZero() || !to.After(from) {
		to = core.StartOfWeek(from).AddDate(0, 0, 7)
	}
	return from.UTC(), to.UTC()
}

func (svc *Service) View(ctx context.Context, q Query) (View, error) {
	q.From, q.To = Window(q.From, q.To, core.NowFunc())
	page := core.Page{Limit: core.MaxPageLimit}
	entries := make([]Entry, 0)

	// entries starting before the window may still run into it
	ivs, _, err := svc.interviews.Query(
		ctx,
		&interview.QueryFilter{UserID: q.UserID, From: q.From.Add(-interview.MaxDuration * time.Minute), To: q.To},
		[]core.DBOrdering{{Field: "scheduled_at", Ascending: true}},
		page,
	)
	if err != nil {
		return View{}, errors.Wrap(err, "querying interviews")
	}
	for _, iv := range ivs {
		if (iv.Outcome == interview.OutcomeCancelled && !q.IncludeEnded) || !endsAfter(iv.ScheduledAt, iv.EndsAt(), q.From) {
			continue
		}
		entries = append(entries, Entry{
			ID:     iv.ID,
			Kind:   KindInterview,
			Title:  fmt.Sprintf("%s interview: %s (%s)", iv.Kind, iv.Company, iv.Position),
			Start:  iv.ScheduledAt,
			End:    iv.EndsAt(),
			Status: string(iv.Outcome),
		})
	}

	if q.WithCalls {
		calls, _, err := svc.calls.Query(
			ctx,
			&call.QueryFilter{CallerID: q.UserID, From: q.From.Add(-call.MaxDuration * time.Minute), To: q.To},
			[]core.DBOrdering{{Field: "scheduled_at", Ascending: true}},
			page,
		)
		if err != nil {
			return View{}, errors.Wrap(err, "querying calls")
		}
		for _, c := range calls {
			if (c.Status == call.StatusCancelled && !q.IncludeEnded) || !endsAfter(c.ScheduledAt, c.EndsAt(), q.From) {
				continue
			}
			entries = append(entries, Entry{
				ID:     c.ID,
				Kind:   KindCall,
				Title:  fmt.Sprintf("call: %s", c.ContactName),
				Start:  c.ScheduledAt,
				End:    c.EndsAt(),
				Status: string(c.Status),
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start.Before(entries[j].Start) })
	// buckets before the window are not checked
	clipped := make([]Entry, len(entries))
	copy(clipped, entries)
	for i := range clipped {
		if clipped[i].Start.Before(q.From) {
			clipped[i].Start = q.From
		}
	}
	conflicts := DetectConflicts(clipped)
	for i := range entries {
		entries[i].Conflict = clipped[i].Conflict
	}
	return View{From: q.From, To: q.To, Entries: entries, Conflicts: conflicts}, nil
}

// endsAfter keeps entries that reach into a window starting at from.
// A zero-length entry counts when it starts at from.
func endsAfter(start, end, from time.Time) bool {
	if !end.After(start) {
		return !start.Before(from)
	}
	return end.After(from)
}
