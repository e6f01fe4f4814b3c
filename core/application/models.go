package application

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/jobtrack/core"
)

type Status string

const (
	StatusApplied      Status = "applied"
	StatusScreening    Status = "screening"
	StatusInterviewing Status = "interviewing"
	StatusOffer        Status = "offer"
	StatusAccepted     Status = "accepted"
	StatusRejected     Status = "rejected"
	StatusWithdrawn    Status = "withdrawn"
)

var AllStatuses = []Status{
	StatusApplied,
	StatusScreening,
	StatusInterviewing,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

func (s Status) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsOffer reports whether the application got an offer, accepted or not.
func (s Status) IsOffer() bool {
	return s == StatusOffer || s == StatusAccepted
}

type Application struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Company   string    `json:"company" db:"company"`
	Position  string    `json:"position" db:"position"`
	Location  string    `json:"location" db:"location"`
	JobURL    string    `json:"job_url" db:"job_url"`
	Source    string    `json:"source" db:"source"`
	SalaryMin null.Int  `json:"salary_min" db:"salary_min"`
	SalaryMax null.Int  `json:"salary_max" db:"salary_max"`
	Status    Status    `json:"status" db:"status"`
	AppliedOn time.Time `json:"applied_on" db:"applied_on"` // UTC midnight
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewApplication contains information needed to log a new Application.
type NewApplication struct {
	Company   string    `json:"company" validate:"required,max=200"`
	Position  string    `json:"position" validate:"required,max=200"`
	Location  string    `json:"location" validate:"max=200"`
	JobURL    string    `json:"job_url" validate:"omitempty,url,max=500"`
	Source    string    `json:"source" validate:"max=100"`
	SalaryMin null.Int  `json:"salary_min"`
	SalaryMax null.Int  `json:"salary_max"`
	Status    Status    `json:"status" validate:"omitempty,appstatus"`
	AppliedOn time.Time `json:"applied_on"`
	Notes     string    `json:"notes" validate:"max=5000"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Company = core.CleanString(na.Company)
	na.Position = core.CleanString(na.Position)
	na.Location = core.CleanString(na.Location)
	na.JobURL = core.CleanString(na.JobURL)
	na.Source = core.CleanString(na.Source)
	na.Notes = core.CleanString(na.Notes)
	if na.Status == "" {
		na.Status = StatusApplied
	}
	if na.AppliedOn.IsZero() {
		na.AppliedOn = core.NowFunc()
	}
	na.AppliedOn = core.StartOfDay(na.AppliedOn)
	return validate.Struct(na)
}

// UpdateApplication defines what may change on an existing Application; blank fields keep their value.
type UpdateApplication struct {
	Company   string    `json:"company" validate:"max=200"`
	Position  string    `json:"position" validate:"max=200"`
	Location  string    `json:"location" validate:"max=200"`
	JobURL    string    `json:"job_url" validate:"omitempty,url,max=500"`
	Source    string    `json:"source" validate:"max=100"`
	SalaryMin null.Int  `json:"salary_min"`
	SalaryMax null.Int  `json:"salary_max"`
	Status    Status    `json:"status" validate:"omitempty,appstatus"`
	AppliedOn time.Time `json:"applied_on"`
	Notes     *string   `json:"notes" validate:"omitempty,max=5000"`
}

func (ua *UpdateApplication) Validate(orig Application, validate *validator.Validate) error {
	keep := func(val *string, origVal string) {
		if v := core.CleanString(*val); v != "" {
			*val = v
		} else {
			*val = origVal
		}
	}
	keep(&ua.Company, orig.Company)
	keep(&ua.Position, orig.Position)
	keep(&ua.Location, orig.Location)
	keep(&ua.JobURL, orig.JobURL)
	keep(&ua.Source, orig.Source)

	if !ua.SalaryMin.Valid {
		ua.SalaryMin = orig.SalaryMin
	}
	if !ua.SalaryMax.Valid {
		ua.SalaryMax = orig.SalaryMax
	}
	if ua.Status == "" {
		ua.Status = orig.Status
	}
	if ua.AppliedOn.IsZero() {
		ua.AppliedOn = orig.AppliedOn
	}
	ua.AppliedOn = core.StartOfDay(ua.AppliedOn)
	if ua.Notes != nil {
		notes := core.CleanString(*ua.Notes)
		ua.Notes = &notes
	}
	return validate.Struct(ua)
}

type QueryFilter struct {
	UserID      string    `query:"user"`
	Statuses    []Status  `query:"status"`
	Search      string    `query:"search"` // company or position
	AppliedFrom time.Time `query:"applied_from"`
	AppliedTo   time.Time `query:"applied_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
