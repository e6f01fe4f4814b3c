// Package testutil wires the services on top of the in-memory database for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/calendar"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/dashboard"
	"github.com/trezcool/jobtrack/core/interview"
	"github.com/trezcool/jobtrack/core/user"
	emailsvc "github.com/trezcool/jobtrack/services/email"
	logsvc "github.com/trezcool/jobtrack/services/logger"
	inmemdb "github.com/trezcool/jobtrack/storage/database/inmem"
)

// Password satisfies the password policy.
const Password = "Sup3r$ecret-Pa55"

type Env struct {
	Conf       *core.Config
	Logger     *logsvc.Logger
	Mail       *emailsvc.ConsoleService
	Validate   *validator.Validate
	Translator ut.Translator

	DB              *inmemdb.DB
	UserRepo        user.Repository
	ApplicationRepo application.Repository
	InterviewRepo   interview.Repository
	CallRepo        call.Repository

	Activity     *activity.Service
	Users        *user.Service
	Applications *application.Service
	Interviews   *interview.Service
	Calls        *call.Service
	Calendar     *calendar.Service
	Dashboard    *dashboard.Service
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	return validate, translator
}

// NewEnv returns services backed by a fresh in-memory database.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.Nop()
	core.ParseEmailTemplates(logger)
	user.LoadCommonPasswords(logger)

	env := &Env{
		Conf:   conf,
		Logger: logger,
		Mail:   emailsvc.NewConsoleServiceMock(conf, logger),
		DB:     inmemdb.Open(),
	}
	env.Validate, env.Translator = NewValidator()

	env.UserRepo = inmemdb.NewUserRepository(env.DB)
	env.ApplicationRepo = inmemdb.NewApplicationRepository(env.DB)
	env.InterviewRepo = inmemdb.NewInterviewRepository(env.DB)
	env.CallRepo = inmemdb.NewCallRepository(env.DB)
	activityRepo := inmemdb.NewActivityRepository(env.DB)

	env.Activity = activity.NewService(activityRepo, activityRepo, logger)
	env.Users = user.NewService(env.UserRepo, env.Mail, env.Activity, logger, conf)
	env.Applications = application.NewService(env.ApplicationRepo, env.Activity)
	env.Interviews = interview.NewService(env.InterviewRepo, env.Applications, env.Activity, logger)
	env.Calls = call.NewService(env.CallRepo, env.Activity)
	env.Calendar = calendar.NewService(env.Interviews, env.Calls)
	env.Dashboard = dashboard.NewService(env.Applications, env.Interviews, env.Calls, env.Activity)
	return env
}

// FreezeTime pins core.NowFunc to now for the duration of the test.
func FreezeTime(t *testing.T, now time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now.UTC() }
	t.Cleanup(func() { core.NowFunc = orig })
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := core.NowFunc()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateApplication(t *testing.T, svc *application.Service, userID, company, position string, status application.Status) application.Application {
	t.Helper()
	if status == "" {
		status = application.StatusApplied
	}
	app, err := svc.Create(context.Background(), userID, application.NewApplication{
		Company:   company,
		Position:  position,
		Status:    status,
		AppliedOn: core.StartOfDay(core.NowFunc()),
	})
	if err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}
	return app
}

func CreateInterview(t *testing.T, svc *interview.Service, usr user.User, appID string, at time.Time, minutes int) interview.Interview {
	t.Helper()
	iv, err := svc.Create(context.Background(), usr.ID, usr.ID, interview.NewInterview{
		ApplicationID:   appID,
		ScheduledAt:     at.UTC(),
		DurationMinutes: minutes,
		Kind:            interview.KindVideo,
	})
	if err != nil {
		t.Fatalf("CreateInterview() failed: %v", err)
	}
	return iv
}

func ScheduleCall(t *testing.T, svc *call.Service, callerID, contact string, at time.Time, minutes int) call.Call {
	t.Helper()
	c, err := svc.Schedule(context.Background(), callerID, call.NewCall{
		ContactName:     contact,
		Phone:           "+1 555 0100",
		ScheduledAt:     at.UTC(),
		DurationMinutes: minutes,
	})
	if err != nil {
		t.Fatalf("ScheduleCall() failed: %v", err)
	}
	return c
}
