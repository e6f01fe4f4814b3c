package main

import (
	"context"
	"os"

	"github.com/trezcool/jobtrack/core"
	"github.com/trezcool/jobtrack/core/activity"
	"github.com/trezcool/jobtrack/core/application"
	"github.com/trezcool/jobtrack/core/user"
	emailsvc "github.com/trezcool/jobtrack/services/email"
	logsvc "github.com/trezcool/jobtrack/services/logger"
	"github.com/trezcool/jobtrack/storage/database"
	pgrepos "github.com/trezcool/jobtrack/storage/database/postgres"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New(conf, os.Stderr)
	ctx := context.Background()

	core.ParseEmailTemplates(logger)
	user.LoadCommonPasswords(logger)

	// set up DB
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	application.InitValidators(validate, translator)

	activityRepo := pgrepos.NewActivityRepository(db)
	feed := activity.NewService(activityRepo, pgrepos.NewStatsRepository(db), logger)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrSvc:   user.NewService(pgrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), feed, logger, conf),
		validate: validate,
		out:      os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		db.Close()
		os.Exit(1)
	}
}
