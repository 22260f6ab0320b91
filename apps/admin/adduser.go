package main

import (
	"time"

	"github.com/Petersomond1/ikoota-sub000/core"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	role := user.RoleUser
	if isAdmin {
		role = user.RoleSuperAdmin
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:            uname,
			Username:        uname,
			Email:           email,
			Role:            role,
			MembershipStage: user.StageNone,
			MemberStatus:    user.StatusNone,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	usr.Email = email
	usr.Role = role
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	return err
}
