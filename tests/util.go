package testutil

import (
	"testing"
	"time"

	"github.com/Petersomond1/ikoota-sub000/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleUser
	}
	usr := user.User{
		Name:            name,
		Username:        uname,
		Email:           email,
		Role:            role,
		MembershipStage: user.StageNone,
		MemberStatus:    user.StatusNone,
		IsActive:        isActive,
		CreatedAt:       tstamp,
		UpdatedAt:       tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// GrantMembership marks usr approved at the given stage.
func GrantMembership(t *testing.T, repo user.Repository, usr user.User, stage string) user.User {
	t.Helper()

	usr.MemberStatus = user.StatusApproved
	usr.MembershipStage = stage
	usr.UpdatedAt = time.Now().UTC()
	usr, err := repo.UpdateUser(usr, nil)
	if err != nil {
		t.Fatalf("GrantMembership() failed: %v", err)
	}
	return usr
}

// SetMemberStatus forces usr into the given member status.
func SetMemberStatus(t *testing.T, repo user.Repository, usr user.User, status string) user.User {
	t.Helper()

	usr.MemberStatus = status
	usr.UpdatedAt = time.Now().UTC()
	usr, err := repo.UpdateUser(usr, nil)
	if err != nil {
		t.Fatalf("SetMemberStatus() failed: %v", err)
	}
	return usr
}
