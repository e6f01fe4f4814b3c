package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
)

var ErrNotFound = core.NewNotFoundError("interview")

type (
	Repository interface {
		CreateInterview(ctx context.Context, iv Interview) (Interview, error)
		QueryInterviews(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Interview, int, error)
		GetInterview(ctx context.Context, id string) (Interview, error)
		UpdateInterview(ctx context.Context, iv Interview) (Interview, error)
		DeleteInterview(ctx context.Context, id string) error
	}

	// Applications is the part of application.Service interviews depend on.
	Applications interface {
		Get(ctx context.Context, id, ownerID string) (application.Application, error)
		AdvanceToInterviewing(ctx context.Context, actorID string, app application.Application) (application.Application, error)
	}

	Service struct {
		repo     Repository
		apps     Applications
		recorder activity.Recorder
		logger   core.Logger
	}
)

func NewService(repo Repository, apps Applications, recorder activity.Recorder, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(apps, "apps"),
		vala.IsNotNil(recorder, "recorder"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, apps: apps, recorder: recorder, logger: logger}
}

// Create schedules an interview for an application visible to ownerID (empty for admins).
func (svc *Service) Create(ctx context.Context, actorID, ownerID string, ni NewInterview) (Interview, error) {
	app, err := svc.apps.Get(ctx, ni.ApplicationID, ownerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Interview{}, core.NewValidationError(err, core.FieldError{Field: "application_id", Error: "application not found"})
		}
		return Interview{}, errors.Wrap(err, "finding application")
	}

	now := core.NowFunc()
	iv, err := svc.repo.CreateInterview(ctx, Interview{
		ApplicationID:   app.ID,
		UserID:          app.UserID,
		ScheduledAt:     ni.ScheduledAt,
		DurationMinutes: ni.DurationMinutes,
		Kind:            ni.Kind,
		Location:        ni.Location,
		Interviewer:     ni.Interviewer,
		Notes:           ni.Notes,
		Outcome:         OutcomePending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Interview{}, errors.Wrap(err, "creating interview")
	}

	// the interview is saved; a stale application status is not worth failing the request
	if _, err = svc.apps.AdvanceToInterviewing(ctx, actorID, app); err != nil {
		svc.logger.Error("advancing application "+app.ID, errors.WithStack(err))
	}

	svc.recorder.Record(ctx, activity.NewEvent{
		ActorID:     actorID,
		Kind:        activity.KindInterviewScheduled,
		SubjectType: activity.SubjectInterview,
		SubjectID:   iv.ID,
		Summary:     fmt.Sprintf("%s interview with %s on %s", iv.Kind, app.Company, iv.ScheduledAt.Format(time.RFC3339)),
	})
	return iv, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Interview, int, error) {
	page.Clean()
	return svc.repo.QueryInterviews(ctx, filter, ordering, page)
}

// Get returns the interview with the given ID. A non-empty ownerID restricts the lookup to that user's interviews.
func (svc *Service) Get(ctx context.Context, id, ownerID string) (Interview, error) {
	iv, err := svc.repo.GetInterview(ctx, id)
	if err != nil {
		return Interview{}, err
	}
	if ownerID != "" && iv.UserID != ownerID {
		return Interview{}, ErrNotFound
	}
	return iv, nil
}

// Update saves ui on top of iv. ui must be validated against iv.
func (svc *Service) Update(ctx context.Context, iv Interview, ui UpdateInterview) (Interview, error) {
	iv.ScheduledAt = ui.ScheduledAt
	iv.DurationMinutes = ui.DurationMinutes
	iv.Kind = ui.Kind
	iv.Location = ui.Location
	iv.Interviewer = ui.Interviewer
	if ui.Notes != nil {
		iv.Notes = *ui.Notes
	}
	iv.Outcome = ui.Outcome
	iv.UpdatedAt = core.NowFunc()

	iv, err := svc.repo.UpdateInterview(ctx, iv)
	return iv, errors.Wrap(err, "updating interview")
}

func (svc *Service) Delete(ctx context.Context, iv Interview) error {
	return errors.Wrap(svc.repo.DeleteInterview(ctx, iv.ID), "deleting interview")
}

// Upcoming returns the user's pending interviews starting from the given time, soonest first.
func (svc *Service) Upcoming(ctx context.Context, userID string, from time.Time, limit int) ([]Interview, error) {
	filter := &QueryFilter{UserID: userID, From: from, Outcomes: []Outcome{OutcomePending}}
	ordering := []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	ivs, _, err := svc.Query(ctx, filter, ordering, core.Page{Limit: limit})
	return ivs, err
}
