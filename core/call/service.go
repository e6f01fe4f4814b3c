package call

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("call")
	ErrCompleted        = errors.New("completed calls cannot be rescheduled")
	ErrNotCompletable   = errors.New("only scheduled or missed calls can be completed")
	errUseCompleteRoute = "use the complete action to complete a call"
)

type (
	Repository interface {
		CreateCall(ctx context.Context, c Call) (Call, error)
		QueryCalls(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Call, int, error)
		GetCall(ctx context.Context, id string) (Call, error)
		UpdateCall(ctx context.Context, c Call) (Call, error)
		DeleteCall(ctx context.Context, id string) error
		CountCallsByStatus(ctx context.Context, callerID string) (map[Status]int, error)
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

// Schedule creates a call for callerID. nc must be validated.
func (svc *Service) Schedule(ctx context.Context, callerID string, nc NewCall) (Call, error) {
	now := core.NowFunc()
	c, err := svc.repo.CreateCall(ctx, Call{
		CallerID:        callerID,
		ContactName:     nc.ContactName,
		Phone:           nc.Phone,
		Company:         nc.Company,
		Purpose:         nc.Purpose,
		ScheduledAt:     nc.ScheduledAt,
		DurationMinutes: nc.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           nc.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Call{}, errors.Wrap(err, "scheduling call")
	}

	svc.recorder.Record(ctx, activity.NewEvent{
		ActorID:     callerID,
		Kind:        activity.KindCallScheduled,
		SubjectType: activity.SubjectCall,
		SubjectID:   c.ID,
		Summary:     fmt.Sprintf("call with %s scheduled", c.ContactName),
	})
	return c, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]Call, int, error) {
	page.Clean()
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCalls(ctx, filter, ordering, page)
}

// Get returns the call with the given ID. A non-empty callerID restricts the lookup to that caller's calls.
func (svc *Service) Get(ctx context.Context, id, callerID string) (Call, error) {
	c, err := svc.repo.GetCall(ctx, id)
	if err != nil {
		return Call{}, err
	}
	if callerID != "" && c.CallerID != callerID {
		return Call{}, ErrNotFound
	}
	return c, nil
}

// Update edits or reschedules c. uc must be validated against c.
func (svc *Service) Update(ctx context.Context, c Call, uc UpdateCall) (Call, error) {
	if c.Status == StatusCompleted {
		return Call{}, core.NewValidationError(ErrCompleted, core.FieldError{Field: "status", Error: ErrCompleted.Error()})
	}
	if uc.Status == StatusCompleted {
		return Call{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: errUseCompleteRoute})
	}

	c.ContactName = uc.ContactName
	c.Phone = uc.Phone
	c.Company = uc.Company
	c.Purpose = uc.Purpose
	c.ScheduledAt = uc.ScheduledAt
	c.DurationMinutes = uc.DurationMinutes
	c.Status = uc.Status
	if uc.Notes != nil {
		c.Notes = *uc.Notes
	}
	c.UpdatedAt = core.NowFunc()

	c, err := svc.repo.UpdateCall(ctx, c)
	return c, errors.Wrap(err, "updating call")
}

// Complete records the outcome of a scheduled or missed call.
func (svc *Service) Complete(ctx context.Context, actorID string, c Call, cc CompleteCall) (Call, error) {
	if c.Status != StatusScheduled && c.Status != StatusMissed {
		return Call{}, core.NewValidationError(ErrNotCompletable, core.FieldError{Field: "status", Error: ErrNotCompletable.Error()})
	}

	now := core.NowFunc()
	c.Status = StatusCompleted
	c.Outcome = cc.Outcome
	if cc.Notes != "" {
		c.Notes = cc.Notes
	}
	c.CompletedAt = null.TimeFrom(now)
	c.UpdatedAt = now

	c, err := svc.repo.UpdateCall(ctx, c)
	if err != nil {
		return Call{}, errors.Wrap(err, "completing call")
	}

	svc.recorder.Record(ctx, activity.NewEvent{
		ActorID:     actorID,
		Kind:        activity.KindCallCompleted,
		SubjectType: activity.SubjectCall,
		SubjectID:   c.ID,
		Summary:     fmt.Sprintf("call with %s completed: %s", c.ContactName, c.Outcome),
	})
	return c, nil
}

func (svc *Service) Delete(ctx context.Context, c Call) error {
	return errors.Wrap(svc.repo.DeleteCall(ctx, c.ID), "deleting call")
}

// CountByStatus returns a count for every status, zero included. An empty callerID counts all calls.
func (svc *Service) CountByStatus(ctx context.Context, callerID string) (map[Status]int, error) {
	counts, err := svc.repo.CountCallsByStatus(ctx, callerID)
	if err != nil {
		return nil, errors.Wrap(err, "counting calls")
	}
	res := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		res[s] = counts[s]
	}
	return res, nil
}
