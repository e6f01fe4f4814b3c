package logsvc

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
)

// Logger writes structured entries with zerolog and reports them to rollbar when enabled.
type Logger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New builds the app logger from conf.Log; out defaults to stderr.
func New(conf *core.Config, out io.Writer) *Logger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)

	if out == nil {
		out = os.Stderr
	}
	if conf.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	zl := zerolog.New(out).
		Level(ParseLevel(conf.Log.Level)).
		With().
		Timestamp().
		Str("app", conf.AppName).
		Str("env", conf.Env).
		Logger()
	return &Logger{zl: zl}
}

// Nop discards everything; used by tests.
func Nop() *Logger {
	rollbar.SetEnabled(false)
	return &Logger{zl: zerolog.Nop()}
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// Zerolog exposes the underlying logger to the HTTP request logger.
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zl }

func (l *Logger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected args: error, map[string]interface{}, user.User
func (l *Logger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !usrSet { // only one person per item
				rollbar.SetPerson(usr.ID, usr.Name, usr.Email)
				usrSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l *Logger) write(ev *zerolog.Event, msg string, args []interface{}) {
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			ev = ev.Err(v)
		case user.User:
			ev = ev.Str("user_id", v.ID).Str("user_email", v.Email)
		case map[string]interface{}:
			ev = ev.Fields(v)
		case string:
			ev = ev.Str("detail", v)
		default:
			ev = ev.Interface("extra", v)
		}
	}
	ev.Msg(msg)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.write(l.zl.Debug(), msg, args)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.write(l.zl.Info(), msg, args)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.write(l.zl.Warn(), msg, args)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.write(l.zl.Error(), msg, args)
}

// Fatal flushes rollbar then exits.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.write(l.zl.Fatal(), msg, args)
}
