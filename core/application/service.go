package application

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
)

var ErrNotFound = core.NewNotFoundError("application")

type (
	Repository interface {
		CreateApplication(ctx context.Context, app Application) (Application, error)
		// QueryApplications applies AND operation on available QueryFilter fields and returns the page plus the total count.
		QueryApplications(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Application, int, error)
		GetApplication(ctx context.Context, id string) (Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
		// DeleteApplication also deletes the application's interviews.
		DeleteApplication(ctx context.Context, id string) error
		CountApplicationsByStatus(ctx context.Context, userID string) (map[Status]int, error)
	}

	Service struct {
		repo     Repository
		recorder activity.Recorder
	}
)

func NewService(repo Repository, recorder activity.Recorder) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(recorder, "recorder"),
	).CheckAndPanic()

	return &Service{repo: repo, recorder: recorder}
}

// Create logs a new application owned by userID. na must be validated.
func (svc *Service) Create(ctx context.Context, userID string, na NewApplication) (Application, error) {
	now := core.NowFunc()
	app, err := svc.repo.CreateApplication(ctx, Application{
		UserID:    userID,
		Company:   na.Company,
		Position:  na.Position,
		Location:  na.Location,
		JobURL:    na.JobURL,
		Source:    na.Source,
		SalaryMin: na.SalaryMin,
		SalaryMax: na.SalaryMax,
		Status:    na.Status,
		AppliedOn: na.AppliedOn,
		Notes:     na.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Application{}, errors.Wrap(err, "creating application")
	}

	svc.recorder.Record(ctx, activity.NewEvent{
		ActorID:     userID,
		Kind:        activity.KindApplicationCreated,
		SubjectType: activity.SubjectApplication,
		SubjectID:   app.ID,
		Summary:     fmt.Sprintf("applied to %s as %s", app.Company, app.Position),
	})
	return app, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Application, int, error) {
	page.Clean()
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryApplications(ctx, filter, ordering, page)
}

// Get returns the application with the given ID. A non-empty ownerID restricts the lookup to that user's applications.
func (svc *Service) Get(ctx context.Context, id, ownerID string) (Application, error) {
	app, err := svc.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if ownerID != "" && app.UserID != ownerID {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// Update saves ua on top of app. ua must be validated against app.
func (svc *Service) Update(ctx context.Context, actorID string, app Application, ua UpdateApplication) (Application, error) {
	prevStatus := app.Status

	app.Company = ua.Company
	app.Position = ua.Position
	app.Location = ua.Location
	app.JobURL = ua.JobURL
	app.Source = ua.Source
	app.SalaryMin = ua.SalaryMin
	app.SalaryMax = ua.SalaryMax
	app.Status = ua.Status
	app.AppliedOn = ua.AppliedOn
	if ua.Notes != nil {
		app.Notes = *ua.Notes
	}
	app.UpdatedAt = core.NowFunc()

	app, err := svc.repo.UpdateApplication(ctx, app)
	if err != nil {
		return Application{}, errors.Wrap(err, "updating application")
	}
	if app.Status != prevStatus {
		svc.recordStatusChange(ctx, actorID, app, prevStatus)
	}
	return app, nil
}

// SetStatus moves the application to the given status when it differs.
func (svc *Service) SetStatus(ctx context.Context, actorID string, app Application, status Status) (Application, error) {
	if app.Status == status {
		return app, nil
	}
	prevStatus := app.Status
	app.Status = status
	app.UpdatedAt = core.NowFunc()

	app, err := svc.repo.UpdateApplication(ctx, app)
	if err != nil {
		return Application{}, errors.Wrap(err, "updating application status")
	}
	svc.recordStatusChange(ctx, actorID, app, prevStatus)
	return app, nil
}

// AdvanceToInterviewing moves an applied or screening application to interviewing.
func (svc *Service) AdvanceToInterviewing(ctx context.Context, actorID string, app Application) (Application, error) {
	if app.Status != StatusApplied && app.Status != StatusScreening {
		return app, nil
	}
	return svc.SetStatus(ctx, actorID, app, StatusInterviewing)
}

func (svc *Service) recordStatusChange(ctx context.Context, actorID string, app Application, from Status) {
	svc.recorder.Record(ctx, activity.NewEvent{
		ActorID:     actorID,
		Kind:        activity.KindStatusChanged,
		SubjectType: activity.SubjectApplication,
		SubjectID:   app.ID,
		Summary:     fmt.Sprintf("%s (%s): %s -> %s", app.Company, app.Position, from, app.Status),
	})
}

func (svc *Service) Delete(ctx context.Context, app Application) error {
	return errors.Wrap(svc.repo.DeleteApplication(ctx, app.ID), "deleting application")
}

// CountByStatus returns a count for every status, zero included. An empty userID counts all applications.
func (svc *Service) CountByStatus(ctx context.Context, userID string) (map[Status]int, error) {
	counts, err := svc.repo.CountApplicationsByStatus(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "counting applications")
	}
	res := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		res[s] = counts[s]
	}
	return res, nil
}
