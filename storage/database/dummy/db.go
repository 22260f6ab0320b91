package dummydb

import (
	"sync"

	"github.com/Petersomond1/ikoota-sub000/core/member"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

type (
	DB struct {
		user   *userTable
		member *applicationTable
	}

	userTable struct {
		sync.RWMutex
		pk    int
		table map[int]*user.User
	}

	applicationTable struct {
		sync.RWMutex
		pk    int
		table map[int]*member.Application
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[int]*user.User)},
		member: &applicationTable{table: make(map[int]*member.Application)},
	}
	return db, nil
}
