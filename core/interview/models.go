package interview

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/jobtrack/core"
)

type Kind string

const (
	KindPhone     Kind = "phone"
	KindVideo     Kind = "video"
	KindOnsite    Kind = "onsite"
	KindTechnical Kind = "technical"
	KindHR        Kind = "hr"
	KindFinal     Kind = "final"
)

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomePassed    Outcome = "passed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

const (
	DefaultDuration = 30
	MinDuration     = 15
	MaxDuration     = 480
)

type Interview struct {
	ID              string    `json:"id" db:"id"`
	ApplicationID   string    `json:"application_id" db:"application_id"`
	UserID          string    `json:"user_id" db:"user_id"`
	ScheduledAt     time.Time `json:"scheduled_at" db:"scheduled_at"` // UTC
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Kind            Kind      `json:"kind" db:"kind"`
	Location        string    `json:"location" db:"location"`
	Interviewer     string    `json:"interviewer" db:"interviewer"`
	Notes           string    `json:"notes" db:"notes"`
	Outcome         Outcome   `json:"outcome" db:"outcome"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"` // UTC

	// read-only, joined from applications
	Company  string `json:"company" db:"company"`
	Position string `json:"position" db:"position"`
}

func (i Interview) EndsAt() time.Time {
	return i.ScheduledAt.Add(time.Duration(i.DurationMinutes) * time.Minute)
}

type NewInterview struct {
	ApplicationID   string    `json:"application_id" validate:"required,uuid"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=15,max=480"`
	Kind            Kind      `json:"kind" validate:"required,oneof=phone video onsite technical hr final"`
	Location        string    `json:"location" validate:"max=200"`
	Interviewer     string    `json:"interviewer" validate:"max=200"`
	Notes           string    `json:"notes" validate:"max=5000"`
}

func (ni *NewInterview) Validate(validate *validator.Validate) error {
	ni.ApplicationID = core.CleanString(ni.ApplicationID)
	ni.Location = core.CleanString(ni.Location)
	ni.Interviewer = core.CleanString(ni.Interviewer)
	ni.Notes = core.CleanString(ni.Notes)
	if ni.DurationMinutes == 0 {
		ni.DurationMinutes = DefaultDuration
	}
	if !ni.ScheduledAt.IsZero() {
		ni.ScheduledAt = ni.ScheduledAt.UTC()
	}
	return validate.Struct(ni)
}

// UpdateInterview defines what may change on an existing Interview; blank fields keep their value.
type UpdateInterview struct {
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=15,max=480"`
	Kind            Kind      `json:"kind" validate:"oneof=phone video onsite technical hr final"`
	Location        string    `json:"location" validate:"max=200"`
	Interviewer     string    `json:"interviewer" validate:"max=200"`
	Notes           *string   `json:"notes" validate:"omitempty,max=5000"`
	Outcome         Outcome   `json:"outcome" validate:"oneof=pending passed failed cancelled"`
}

func (ui *UpdateInterview) Validate(orig Interview, validate *validator.Validate) error {
	if ui.ScheduledAt.IsZero() {
		ui.ScheduledAt = orig.ScheduledAt
	}
	ui.ScheduledAt = ui.ScheduledAt.UTC()
	if ui.DurationMinutes == 0 {
		ui.DurationMinutes = orig.DurationMinutes
	}
	if ui.Kind == "" {
		ui.Kind = orig.Kind
	}
	if loc := core.CleanString(ui.Location); loc != "" {
		ui.Location = loc
	} else {
		ui.Location = orig.Location
	}
	if iv := core.CleanString(ui.Interviewer); iv != "" {
		ui.Interviewer = iv
	} else {
		ui.Interviewer = orig.Interviewer
	}
	if ui.Notes != nil {
		notes := core.CleanString(*ui.Notes)
		ui.Notes = &notes
	}
	if ui.Outcome == "" {
		ui.Outcome = orig.Outcome
	}
	return validate.Struct(ui)
}

// QueryFilter selects interviews scheduled in [From, To) when set.
type QueryFilter struct {
	UserID        string    `query:"user"`
	ApplicationID string    `query:"application"`
	From          time.Time `query:"from"`
	To            time.Time `query:"to"`
	Outcomes      []Outcome `query:"outcome"`
}
