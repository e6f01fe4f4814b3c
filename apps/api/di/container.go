package di

import (
	"context"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/jobtrack/apps/api/echo"
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
	"github.com/trezcool/jobtrack/storage/database"
	inmemdb "github.com/trezcool/jobtrack/storage/database/inmem"
	pgrepos "github.com/trezcool/jobtrack/storage/database/postgres"
)

// Storage holds the repositories of the configured engine.
type Storage struct {
	DB core.DB // nil with the in-memory storage

	Users        user.Repository
	Applications application.Repository
	Interviews   interview.Repository
	Calls        call.Repository
	Activity     activity.Repository
	Stats        activity.StatsRepository
}

// Close releases the database connections, if any.
func (s Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     *logsvc.Logger
	Storage    Storage
	Registry   *prometheus.Registry
	Shutdown   chan os.Signal
	Validate   *validator.Validate
	Translator ut.Translator

	Users        *user.Service
	Applications *application.Service
	Interviews   *interview.Service
	Calls        *call.Service
	Calendar     *calendar.Service
	Dashboard    *dashboard.Service
	Activity     *activity.Service
}

func newLogger(conf *core.Config) *logsvc.Logger {
	return logsvc.New(conf, os.Stdout)
}

func newStorage(conf *core.Config, logger *logsvc.Logger) (Storage, error) {
	if conf.Storage == "memory" {
		logger.Warn("using the in-memory storage: data is lost on exit")
		db := inmemdb.Open()
		activityRepo := inmemdb.NewActivityRepository(db)
		return Storage{
			Users:        inmemdb.NewUserRepository(db),
			Applications: inmemdb.NewApplicationRepository(db),
			Interviews:   inmemdb.NewInterviewRepository(db),
			Calls:        inmemdb.NewCallRepository(db),
			Activity:     activityRepo,
			Stats:        activityRepo,
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return Storage{}, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return Storage{}, err
	}
	if err = database.Migrate(ctx, db.DB, "up"); err != nil {
		_ = db.Close()
		return Storage{}, err
	}

	return Storage{
		DB:           db,
		Users:        pgrepos.NewUserRepository(db),
		Applications: pgrepos.NewApplicationRepository(db),
		Interviews:   pgrepos.NewInterviewRepository(db),
		Calls:        pgrepos.NewCallRepository(db),
		Activity:     pgrepos.NewActivityRepository(db),
		Stats:        pgrepos.NewStatsRepository(db),
	}, nil
}

func newEmailService(conf *core.Config, logger *logsvc.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	application.InitValidators(validate, translator)
	return validate, translator
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newActivityService(s Storage, logger *logsvc.Logger) *activity.Service {
	return activity.NewService(s.Activity, s.Stats, logger)
}

func newUserService(s Storage, mailSvc core.EmailService, feed *activity.Service, logger *logsvc.Logger, conf *core.Config) *user.Service {
	return user.NewService(s.Users, mailSvc, feed, logger, conf)
}

func newApplicationService(s Storage, feed *activity.Service) *application.Service {
	return application.NewService(s.Applications, feed)
}

func newInterviewService(s Storage, apps *application.Service, feed *activity.Service, logger *logsvc.Logger) *interview.Service {
	return interview.NewService(s.Interviews, apps, feed, logger)
}

func newCallService(s Storage, feed *activity.Service) *call.Service {
	return call.NewService(s.Calls, feed)
}

func newCalendarService(interviews *interview.Service, calls *call.Service) *calendar.Service {
	return calendar.NewService(interviews, calls)
}

func newDashboardService(apps *application.Service, interviews *interview.Service, calls *call.Service, feed *activity.Service) *dashboard.Service {
	return dashboard.NewService(apps, interviews, calls, feed)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		AccessLog:      p.Logger.Zerolog(),
		DB:             p.Storage.DB,
		Registry:       p.Registry,
		Shutdown:       p.Shutdown,
		Validate:       p.Validate,
		Translator:     p.Translator,
		UserSvc:        p.Users,
		ApplicationSvc: p.Applications,
		InterviewSvc:   p.Interviews,
		CallSvc:        p.Calls,
		CalendarSvc:    p.Calendar,
		DashboardSvc:   p.Dashboard,
		ActivitySvc:    p.Activity,
	})
}

// New returns a new dependency injection dig.Container.
// shutdown receives the OS signals that stop the server.
func New(shutdown chan os.Signal) *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(func() chan os.Signal { return shutdown }))
	must(c.Provide(newLogger))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(newRegistry))
	must(c.Provide(newActivityService))
	must(c.Provide(newUserService))
	must(c.Provide(newApplicationService))
	must(c.Provide(newInterviewService))
	must(c.Provide(newCallService))
	must(c.Provide(newCalendarService))
	must(c.Provide(newDashboardService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
