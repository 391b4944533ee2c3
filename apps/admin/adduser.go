package main

import (
	"context"

	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/user"
)

// addUser creates a user account, optionally with admin rights.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		IsAdmin:         isAdmin,
	})
	if err != nil {
		return err
	}
	logger.Printf("user %q (id=%d) created\n", usr.Email, usr.ID)
	return nil
}

// resetPassword replaces the password of the user matching uname.
func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if _, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
		Password:        pwd,
		PasswordConfirm: pwd,
	}); err != nil {
		return err
	}
	logger.Printf("password updated for user %q (id=%d)\n", usr.Email, usr.ID)
	return nil
}
