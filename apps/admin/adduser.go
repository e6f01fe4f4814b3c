package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/jobtrack/core/user"
)

// addUser creates a user, or reactivates an existing one with the given name, role & password.
func (cli *commandLine) addUser(ctx context.Context, name, email, pwd string, role user.Role) (user.User, error) {
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return user.User{}, err
		}
		nu := user.NewUser{
			Name:            name,
			Email:           email,
			Role:            &role,
			Password:        pwd,
			PasswordConfirm: pwd,
		}
		if err = nu.Validate(cli.validate); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, nu)
	}

	active := true
	uu := user.UpdateUser{
		Name:            name,
		Role:            &role,
		IsActive:        &active,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err = uu.Validate(usr, cli.validate); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.Update(ctx, usr, uu)
}
