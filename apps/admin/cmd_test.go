package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/jobtrack/core/user"
	"github.com/trezcool/jobtrack/storage/database"
	"github.com/trezcool/jobtrack/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv(t)
	return &commandLine{
		usrSvc:   env.Users,
		validate: env.Validate,
		out:      new(bytes.Buffer),
	}, env
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantAnyErr bool
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			err := cli.run(context.Background(), append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, errors.Cause(err).Error())
			case tt.wantAnyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				if check != nil {
					check(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}, nil)
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "resetpassword -email EMAIL")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var gotCommand string
	var gotArgs []string
	orig := database.GooseRunFunc
	database.GooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		gotCommand, gotArgs = command, args
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	t.Cleanup(func() { database.GooseRunFunc = orig })

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "contacts", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		assert.Equal(t, tt.args[1], gotCommand)
		assert.Equal(t, tt.args[2:], gotArgs)
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	existing := testutil.CreateUser(t, env.UserRepo, "Dan", "dan@test.cd", testutil.Password, user.RoleUser, false)
	newPwd := "An0ther$ecret-Pwd"

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "grace@test.cd"}, pwd: newPwd, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-email", "grace@test.cd", "-name", "Grace", "-role", "root"}, pwd: newPwd, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "grace@test.cd", "-name", "Grace"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "-email", "grace@test.cd", "-name", "Grace"}, pwd: "12345678", wantAnyErr: true},
		{name: "invalid email", args: []string{"adduser", "-email", "grace", "-name", "Grace"}, pwd: newPwd, wantAnyErr: true},
		{name: "create caller", args: []string{"adduser", "-email", "Grace@Test.cd", "-name", "Grace", "-role", "caller"}, pwd: newPwd},
		{name: "promote existing", args: []string{"adduser", "-email", existing.Email, "-name", "Dan Admin", "-role", "ADMIN"}, pwd: newPwd},
	}
	runCLITests(t, cli, tests, nil)

	t.Run("saved users", func(t *testing.T) {
		grace, err := env.Users.GetByEmail(context.Background(), "grace@test.cd")
		require.NoError(t, err)
		assert.Equal(t, "Grace", grace.Name)
		assert.Equal(t, user.RoleCaller, grace.Role)
		assert.True(t, grace.IsActive)
		assert.NoError(t, grace.CheckPassword(newPwd))

		dan, err := env.Users.GetByID(context.Background(), existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dan Admin", dan.Name)
		assert.Equal(t, user.RoleAdmin, dan.Role)
		assert.True(t, dan.IsActive)
		assert.NoError(t, dan.CheckPassword(newPwd))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Ada", "ada@test.cd", testutil.Password, user.RoleUser, true)
	newPwd := "An0ther$ecret-Pwd"

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "nope@test.cd"}, pwd: newPwd, wantErrStr: "not found"},
		{name: "weak password", args: []string{"resetpassword", "-email", usr.Email}, pwd: "password", wantAnyErr: true},
		{name: "reset", args: []string{"resetpassword", "-email", "ADA@test.cd"}, pwd: newPwd},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		refreshed, err := env.Users.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, bytes.Equal(usr.PasswordHash, refreshed.PasswordHash))
		assert.NoError(t, refreshed.CheckPassword(newPwd))
	})
}
