package main

import (
	"context"
	"time"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:      name,
			Email:     email,
			CreatedAt: now,
		}
	}
	usr.Name = name
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID.IsZero() {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
