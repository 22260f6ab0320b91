package member

import (
	"github.com/Petersomond1/ikoota-sub000/core"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose notification emails are sent
// synchronously, for tests.
func NewServiceMock(repo Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			usrRepo: usrRepo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) Review(adminID, appID int, rd ReviewDecision) (Application, error) {
	app, err := svc.service.review(adminID, appID, rd, true /* syncMail */)
	return app, err
}
