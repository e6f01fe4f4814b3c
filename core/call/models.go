package call

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/jobtrack/core"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusScheduled, StatusCompleted, StatusMissed, StatusCancelled}

const (
	DefaultDuration = 15
	MinDuration     = 5
	MaxDuration     = 240
)

type Call struct {
	ID              string    `json:"id" db:"id"`
	CallerID        string    `json:"caller_id" db:"caller_id"`
	ContactName     string    `json:"contact_name" db:"contact_name"`
	Phone           string    `json:"phone" db:"phone"`
	Company         string    `json:"company" db:"company"`
	Purpose         string    `json:"purpose" db:"purpose"`
	ScheduledAt     time.Time `json:"scheduled_at" db:"scheduled_at"` // UTC
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Status          Status    `json:"status" db:"status"`
	Outcome         string    `json:"outcome" db:"outcome"`
	Notes           string    `json:"notes" db:"notes"`
	CompletedAt     null.Time `json:"completed_at" db:"completed_at"` // UTC
	CreatedAt       time.Time `json:"created_at" db:"created_at"`     // UTC
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`     // UTC
}

func (c Call) EndsAt() time.Time {
	return c.ScheduledAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

type NewCall struct {
	ContactName     string    `json:"contact_name" validate:"required,max=200"`
	Phone           string    `json:"phone" validate:"required,phone"`
	Company         string    `json:"company" validate:"max=200"`
	Purpose         string    `json:"purpose" validate:"max=500"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=5,max=240"`
	Notes           string    `json:"notes" validate:"max=5000"`
}

func (nc *NewCall) Validate(validate *validator.Validate) error {
	nc.ContactName = core.CleanString(nc.ContactName)
	nc.Phone = core.CleanString(nc.Phone)
	nc.Company = core.CleanString(nc.Company)
	nc.Purpose = core.CleanString(nc.Purpose)
	nc.Notes = core.CleanString(nc.Notes)
	if nc.DurationMinutes == 0 {
		nc.DurationMinutes = DefaultDuration
	}
	if !nc.ScheduledAt.IsZero() {
		nc.ScheduledAt = nc.ScheduledAt.UTC()
	}
	return validate.Struct(nc)
}

// UpdateCall edits or reschedules a call; blank fields keep their value.
type UpdateCall struct {
	ContactName     string    `json:"contact_name" validate:"max=200"`
	Phone           string    `json:"phone" validate:"omitempty,phone"`
	Company         string    `json:"company" validate:"max=200"`
	Purpose         string    `json:"purpose" validate:"max=500"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=5,max=240"`
	Status          Status    `json:"status" validate:"oneof=scheduled missed cancelled completed"`
	Notes           *string   `json:"notes" validate:"omitempty,max=5000"`
}

func (uc *UpdateCall) Validate(orig Call, validate *validator.Validate) error {
	keep := func(val *string, origVal string) {
		if v := core.CleanString(*val); v != "" {
			*val = v
		} else {
			*val = origVal
		}
	}
	keep(&uc.ContactName, orig.ContactName)
	keep(&uc.Phone, orig.Phone)
	keep(&uc.Company, orig.Company)
	keep(&uc.Purpose, orig.Purpose)

	if uc.ScheduledAt.IsZero() {
		uc.ScheduledAt = orig.ScheduledAt
	}
	uc.ScheduledAt = uc.ScheduledAt.UTC()
	if uc.DurationMinutes == 0 {
		uc.DurationMinutes = orig.DurationMinutes
	}
	if uc.Status == "" {
		uc.Status = orig.Status
	}
	if uc.Notes != nil {
		notes := core.CleanString(*uc.Notes)
		uc.Notes = &notes
	}
	return validate.Struct(uc)
}

type CompleteCall struct {
	Outcome string `json:"outcome" validate:"required,max=500"`
	Notes   string `json:"notes" validate:"max=5000"`
}

func (cc *CompleteCall) Validate(validate *validator.Validate) error {
	cc.Outcome = core.CleanString(cc.Outcome)
	cc.Notes = core.CleanString(cc.Notes)
	return validate.Struct(cc)
}

// QueryFilter selects calls scheduled in [From, To) when set. Search matches contact name or company.
type QueryFilter struct {
	CallerID string    `query:"caller"`
	Statuses []Status  `query:"status"`
	From     time.Time `query:"from"`
	To       time.Time `query:"to"`
	Search   string    `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
