package echoapi

import (
	"context"
	"math"
	"net/http"
	"os"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/calendar"
	"github.com/trezcool/jobtrack/core/call"
	"github.com/trezcool/jobtrack/core/dashboard"
	"github.com/trezcool/jobtrack/core/interview"
	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/storage/database"
)

const headerTotalCount = "X-Total-Count"

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		AccessLog  *zerolog.Logger // request logs are skipped when nil
		DB         core.DB         // nil with the in-memory storage
		Registry   *prometheus.Registry
		Shutdown   chan os.Signal
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc        *user.Service
		ApplicationSvc *application.Service
		InterviewSvc   *interview.Service
		CallSvc        *call.Service
		CalendarSvc    *calendar.Service
		DashboardSvc   *dashboard.Service
		ActivitySvc    *activity.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		metrics  *metrics
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Translator, "Translator"),
		vala.IsNotNil(deps.UserSvc, "UserSvc"),
		vala.IsNotNil(deps.ApplicationSvc, "ApplicationSvc"),
		vala.IsNotNil(deps.InterviewSvc, "InterviewSvc"),
		vala.IsNotNil(deps.CallSvc, "CallSvc"),
		vala.IsNotNil(deps.CalendarSvc, "CalendarSvc"),
		vala.IsNotNil(deps.DashboardSvc, "DashboardSvc"),
		vala.IsNotNil(deps.ActivitySvc, "ActivitySvc"),
	).CheckAndPanic()

	shutdown := deps.Shutdown
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(deps.Registry),
		errs:     make(chan error, 1),
		shutdown: shutdown,
	}
	// Shutdown & Close act on echo's own server
	s.app.Server.Addr = deps.Conf.Server.Address()
	s.app.Server.ReadTimeout = deps.Conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = deps.Conf.Server.WriteTimeout
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.HidePort = conf.TestMode
	s.app.Debug = conf.Debug
	s.app.JSONSerializer = jsonSerializer{}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.AccessLog != nil {
		s.app.Use(requestLogger(s.deps.AccessLog))
	}
	s.app.Use(s.metrics.middleware)
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  conf.Server.CORSOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{headerTotalCount},
	}))

	s.app.GET("/", home)
	s.app.GET("/healthz", s.health)
	s.app.GET("/metrics", s.metrics.handler())

	v1 := s.app.Group("/v1")
	auth := newAuthenticator(conf, s.deps.UserSvc)
	jwt := auth.middleware()
	limiter := rateLimiter(conf.Server.RateLimit)

	registerUserAPI(v1, auth, jwt, limiter, s.metrics, s.deps.UserSvc, s.deps.Validate, s.deps.Logger)
	registerApplicationAPI(v1, jwt, s.deps.ApplicationSvc, s.deps.InterviewSvc, s.deps.ActivitySvc, s.metrics, s.deps.Validate)
	registerInterviewAPI(v1, jwt, s.deps.InterviewSvc, s.metrics, s.deps.Validate)
	registerCallAPI(v1, jwt, s.deps.CallSvc, s.metrics, s.deps.Validate)
	registerCalendarAPI(v1, jwt, s.deps.CalendarSvc, s.deps.DashboardSvc, s.deps.UserSvc)
	registerAdminAPI(v1, jwt, s.deps.ActivitySvc)
}

// Start runs the server in the background. Listening errors are sent to Errors.
func (s *Server) Start() {
	go func() {
		if err := s.app.StartServer(s.app.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
}

func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) health(ctx echo.Context) error {
	status := echo.Map{"status": "ok", "build": s.deps.Conf.Build}
	if s.deps.DB != nil {
		c, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
		defer cancel()
		if err := database.StatusCheck(c, s.deps.DB); err != nil {
			s.deps.Logger.Warn("health check failed", err)
			status["status"] = "db not ready"
			return ctx.JSON(http.StatusServiceUnavailable, status)
		}
	}
	return ctx.JSON(http.StatusOK, status)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Jobtrack API!")
}

// rateLimiter throttles un-authed endpoints per client IP. A non-positive rate disables it.
func rateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     int(math.Max(1, math.Ceil(perSecond))),
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errHttpForbidden
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyRequests
		},
	})
}

func requestLogger(logger *zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil {
				ev = logger.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
