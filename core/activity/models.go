package activity

import (
	"time"
)

type Kind string

const (
	KindUserRegistered     Kind = "user_registered"
	KindApplicationCreated Kind = "application_created"
	KindStatusChanged      Kind = "status_changed"
	KindInterviewScheduled Kind = "interview_scheduled"
	KindCallScheduled      Kind = "call_scheduled"
	KindCallCompleted      Kind = "call_completed"
)

var AllKinds = []Kind{
	KindUserRegistered,
	KindApplicationCreated,
	KindStatusChanged,
	KindInterviewScheduled,
	KindCallScheduled,
	KindCallCompleted,
}

func (k Kind) IsValid() bool {
	for _, kind := range AllKinds {
		if k == kind {
			return true
		}
	}
	return false
}

type SubjectType string

const (
	SubjectUser        SubjectType = "user"
	SubjectApplication SubjectType = "application"
	SubjectInterview   SubjectType = "interview"
	SubjectCall        SubjectType = "call"
)

// Event is an entry of the activity feed.
type Event struct {
	ID          string      `json:"id" db:"id"`
	ActorID     string      `json:"actor_id" db:"actor_id"`
	ActorName   string      `json:"actor_name" db:"actor_name"` // read-only, joined from users
	Kind        Kind        `json:"kind" db:"kind"`
	SubjectType SubjectType `json:"subject_type" db:"subject_type"`
	SubjectID   string      `json:"subject_id" db:"subject_id"`
	Summary     string      `json:"summary" db:"summary"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
}

type NewEvent struct {
	ActorID     string
	Kind        Kind
	SubjectType SubjectType
	SubjectID   string
	Summary     string
}

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// FeedFilter selects events older than Before (when set), newest first.
type FeedFilter struct {
	ActorID     string      `query:"actor"`
	Kinds       []Kind      `query:"kind"`
	SubjectType SubjectType `query:"subject_type"`
	SubjectID   string      `query:"subject_id"`
	Before      time.Time   `query:"before"`
	Limit       int         `query:"limit"`
}

func (f *FeedFilter) Clean() {
	if f.Limit <= 0 {
		f.Limit = DefaultFeedLimit
	} else if f.Limit > MaxFeedLimit {
		f.Limit = MaxFeedLimit
	}
}

// Matches is used by the in-memory repository.
func (f *FeedFilter) Matches(ev Event) bool {
	if f.ActorID != "" && ev.ActorID != f.ActorID {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if ev.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.SubjectType != "" && ev.SubjectType != f.SubjectType {
		return false
	}
	if f.SubjectID != "" && ev.SubjectID != f.SubjectID {
		return false
	}
	if !f.Before.IsZero() && !ev.CreatedAt.Before(f.Before) {
		return false
	}
	return true
}

type (
	RoleCount struct {
		Role  int `json:"role" boil:"role"`
		Count int `json:"count" boil:"count"`
	}

	DayCount struct {
		Day   time.Time `json:"day" boil:"day"`
		Count int       `json:"count" boil:"count"`
	}

	// Stats is the admin overview.
	Stats struct {
		TotalUsers           int            `json:"total_users"`
		ActiveUsers          int            `json:"active_users"`
		UsersByRole          []RoleCount    `json:"users_by_role"`
		TotalApplications    int            `json:"total_applications"`
		ApplicationsByStatus map[string]int `json:"applications_by_status"`
		ApplicationsPerDay   []DayCount     `json:"applications_per_day"`
		UpcomingInterviews   int            `json:"upcoming_interviews"`
		CallsByStatus        map[string]int `json:"calls_by_status"`
		OfferRate            float64        `json:"offer_rate"`
	}

	// UserActivity holds the per-user counters a Score is computed from.
	UserActivity struct {
		UserID         string `json:"user_id" boil:"user_id"`
		Name           string `json:"name" boil:"name"`
		Email          string `json:"email" boil:"email"`
		Role           int    `json:"role" boil:"role"`
		Applications   int    `json:"applications" boil:"applications"`
		Interviews     int    `json:"interviews" boil:"interviews"`
		Offers         int    `json:"offers" boil:"offers"`
		CallsScheduled int    `json:"calls_scheduled" boil:"calls_scheduled"`
		CallsCompleted int    `json:"calls_completed" boil:"calls_completed"`
	}

	Score struct {
		UserActivity
		Score int `json:"score"`
	}
)

// score weights
const (
	weightApplication   = 1
	weightInterview     = 3
	weightOffer         = 5
	weightCallScheduled = 1
	weightCallCompleted = 2
)

func (ua UserActivity) Weighted() int {
	return weightApplication*ua.Applications +
		weightInterview*ua.Interviews +
		weightOffer*ua.Offers +
		weightCallScheduled*ua.CallsScheduled +
		weightCallCompleted*ua.CallsCompleted
}
