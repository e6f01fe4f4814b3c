package main

import (
	"context"

	"github.com/trezcool/jobtrack/storage/database"
)

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return database.Migrate(ctx, cli.db, args[0], args[1:]...)
}
