package user

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")

	errInvalidValue = "invalid value"
)

type (
	GetFilter struct {
		ID    string
		Email string
	}

	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields and returns the page plus the total count.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]User, int, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		recorder activity.Recorder
		logger   core.Logger
		tokens   tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, recorder activity.Recorder, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(recorder, "recorder"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		recorder: recorder,
		logger:   logger,
		tokens:   newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclIDs...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

func (svc *Service) create(ctx context.Context, nu NewUser, role Role) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := core.NowFunc()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Register signs up a job seeker; the requested role is ignored.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	usr, err := svc.create(ctx, nu, RoleUser)
	if err != nil {
		return User{}, err
	}

	svc.recorder.Record(ctx, activity.NewEvent{
		ActorID:     usr.ID,
		Kind:        activity.KindUserRegistered,
		SubjectType: activity.SubjectUser,
		SubjectID:   usr.ID,
		Summary:     fmt.Sprintf("%s signed up", usr.Name),
	})
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: map[string]string{"Name": usr.Name, "Email": usr.Email},
	})
	return usr, nil
}

// Create is used by admins and may set any role.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	return svc.create(ctx, nu, nu.GetRole())
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Page) ([]User, int, error) {
	page.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering, page)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Update applies validated changes on top of usr.
func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	if uu.Email != usr.Email {
		if err := svc.checkUniqueness(ctx, uu.Email, usr.ID); err != nil {
			return User{}, err
		}
	}

	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Phone = uu.Phone
	if uu.Role != nil {
		usr.Role = *uu.Role
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteUsersByID(ctx, ids...)
	return errors.Wrap(err, "deleting users")
}

// RequestPasswordReset mails a reset link to the active user owning email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": svc.tokens.makeToken(usr),
		},
	})
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidUID := core.NewValidationError(nil, core.FieldError{Field: "uid", Error: errInvalidValue})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalidUID
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidUID
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: errInvalidValue})
	}

	_, err = svc.SetPassword(ctx, usr, data.Password)
	return err
}

// MakeResetToken is exposed for the admin CLI and tests.
func (svc *Service) MakeResetToken(usr User) string {
	return svc.tokens.makeToken(usr)
}
