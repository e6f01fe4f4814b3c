package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/jobtrack/core"
)

// Role is stored as an integer; a higher value carries more rights.
type Role int

const (
	RoleUser   Role = iota // job seeker
	RoleCaller             // schedules & tracks outbound calls
	RoleAdmin              // statistics, activity & user management
)

var (
	AllRoles = []Role{RoleUser, RoleCaller, RoleAdmin}

	Roles = []RoleInfo{
		{Name: "User", Value: RoleUser},
		{Name: "Caller", Value: RoleCaller},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func (r Role) IsValid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleCaller:
		return "caller"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// ParseRole accepts a role name as used by the admin CLI.
func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles {
		if r.String() == core.CleanString(s, true /* lower */) {
			return r, true
		}
	}
	return RoleUser, false
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsCaller() bool { return u.Role == RoleCaller }

// CanGrant reports whether u may give role r to another user.
func (u *User) CanGrant(r Role) bool {
	return r <= u.Role
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Role            *Role  `json:"role" validate:"omitempty,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	return validate.Struct(nu)
}

// GetRole defaults to RoleUser.
func (nu *NewUser) GetRole() Role {
	if nu.Role == nil {
		return RoleUser
	}
	return *nu.Role
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	IsActive        *bool  `json:"is_active"`
	Role            *Role  `json:"role" validate:"omitempty,role"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// Validate fills blank fields from origUsr before validating.
func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if phone := core.CleanString(uu.Phone); phone != "" {
		uu.Phone = phone
	} else {
		uu.Phone = origUsr.Phone
	}

	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []Role    `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
