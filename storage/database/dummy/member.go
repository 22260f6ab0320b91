package dummydb

import (
	"sort"

	"github.com/Petersomond1/ikoota-sub000/core/member"
)

type memberRepository struct {
	db *applicationTable
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *DB) member.Repository {
	return &memberRepository{db: db.member}
}

func (repo *memberRepository) CreateApplication(app member.Application) (member.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	app.ID = repo.db.pk
	repo.db.table[app.ID] = &app
	return app, nil
}

func (repo *memberRepository) GetApplicationByID(id int) (member.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.db.table[id]; ok {
		return *app, nil
	}
	return member.Application{}, member.ErrNotFound
}

func (repo *memberRepository) GetApplicationByUserID(userID int) (member.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, app := range repo.db.table {
		if app.UserID == userID {
			return *app, nil
		}
	}
	return member.Application{}, member.ErrNotFound
}

func (repo *memberRepository) QueryApplicationsByStatus(status string) ([]member.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	apps := make([]member.Application, 0)
	for _, app := range repo.db.table {
		if app.Status == status {
			apps = append(apps, *app)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].SubmittedAt.Before(apps[j].SubmittedAt) })
	return apps, nil
}

func (repo *memberRepository) UpdateApplication(app member.Application) (member.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[app.ID]; !ok {
		return member.Application{}, member.ErrNotFound
	}
	repo.db.table[app.ID] = &app
	return app, nil
}
