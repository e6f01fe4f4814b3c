package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/jobtrack/apps/api/di"
	echoapi "github.com/trezcool/jobtrack/apps/api/echo"
	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/user"
	logsvc "github.com/trezcool/jobtrack/services/logger"
)

func main() {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	c := di.New(shutdown)
	if err := c.Invoke(run); err != nil {
		log.Fatalf("starting api: %v", err)
	}
}

func run(conf *core.Config, logger *logsvc.Logger, storage di.Storage, server *echoapi.Server) {
	// =========================================================================
	// Initialize App

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration", err)
	}

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	core.ParseEmailTemplates(logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address()))
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
