package main

import (
	"context"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	var usr user.User
	var err error
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: uname}); err != nil {
		if err != user.ErrNotFound {
			return err
		}
		if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email}); err != nil {
			if err != user.ErrNotFound {
				return err
			}
			now := time.Now().UTC()
			usr = user.User{
				Username:  uname,
				Email:     email,
				CreatedAt: now,
			}
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		usr.IsActive = true
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	return err
}
