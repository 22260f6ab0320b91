package member

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Petersomond1/ikoota-sub000/core"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("application not found")
	ErrAlreadyApplied = errors.New("an application has already been submitted")
	ErrAlreadyMember  = errors.New("membership has already been granted")
)

type (
	Repository interface {
		CreateApplication(app Application) (Application, error)
		GetApplicationByID(id int) (Application, error)
		GetApplicationByUserID(userID int) (Application, error)
		QueryApplicationsByStatus(status string) ([]Application, error)
		UpdateApplication(app Application) (Application, error)
	}

	Service interface {
		SurveyAPI
		Submit(userID int, na NewApplication) (Application, error)
		PendingApplications() ([]Application, error)
		Review(adminID, appID int, rd ReviewDecision) (Application, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, usrRepo: usrRepo, mailSvc: mailSvc}
}

// Submit records a membership application; the applicant's member status
// moves to "applied" and the application starts out pending review.
func (svc *service) Submit(userID int, na NewApplication) (Application, error) {
	usr, err := svc.usrRepo.GetUserByID(userID)
	if err != nil {
		return Application{}, err
	}
	if usr.MemberStatus == user.StatusApproved {
		return Application{}, core.NewValidationError(ErrAlreadyMember)
	}
	if _, err = svc.repo.GetApplicationByUserID(userID); err == nil {
		return Application{}, core.NewValidationError(ErrAlreadyApplied)
	} else if err != ErrNotFound {
		return Application{}, err
	}

	app := Application{
		UserID:      userID,
		Answers:     na.Answers,
		Status:      AppPending,
		SubmittedAt: time.Now().UTC(),
	}
	app, err = svc.repo.CreateApplication(app)
	if err != nil {
		return Application{}, err
	}

	usr.MemberStatus = user.StatusApplied
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.usrRepo.UpdateUser(usr, nil); err != nil {
		return Application{}, err
	}
	return app, nil
}

// CheckSurveyStatus reports the survey/approval state for a user. This is the
// upstream behind the rate-limited Checker.
func (svc *service) CheckSurveyStatus(_ context.Context, userID int) (SurveyResult, error) {
	if _, err := svc.usrRepo.GetUserByID(userID); err != nil {
		return SurveyResult{}, err
	}

	app, err := svc.repo.GetApplicationByUserID(userID)
	if err != nil {
		if err == ErrNotFound {
			return SurveyResult{
				SurveyCompleted: false,
				ApprovalStatus:  ApprovalNotSubmitted,
				NeedsSurvey:     true,
			}, nil
		}
		return SurveyResult{}, err
	}

	return SurveyResult{
		SurveyCompleted: true,
		ApprovalStatus:  app.Status, // pending | approved | rejected
		NeedsSurvey:     false,
		SurveyData:      app.Answers,
	}, nil
}

func (svc *service) PendingApplications() ([]Application, error) {
	return svc.repo.QueryApplicationsByStatus(AppPending)
}

// Review applies an admin decision to a pending application. Approval grants
// the requested membership stage (pre by default), assigns a converse ID if
// the user has none, and notifies the applicant by email.
func (svc *service) Review(adminID, appID int, rd ReviewDecision) (Application, error) {
	return svc.review(adminID, appID, rd, false /* syncMail */)
}

func (svc *service) review(adminID, appID int, rd ReviewDecision, syncMail bool) (Application, error) {
	app, err := svc.repo.GetApplicationByID(appID)
	if err != nil {
		return Application{}, err
	}
	if app.Status != AppPending {
		return Application{}, core.NewValidationError(errors.New("application has already been reviewed"))
	}
	usr, err := svc.usrRepo.GetUserByID(app.UserID)
	if err != nil {
		return Application{}, err
	}

	now := time.Now().UTC()
	app.Status = rd.Decision
	app.AdminNotes = rd.AdminNotes
	app.ReviewedBy = adminID
	app.ReviewedAt = now

	switch rd.Decision {
	case AppApproved:
		usr.MemberStatus = user.StatusApproved
		if rd.GrantStage != "" {
			usr.MembershipStage = rd.GrantStage
		} else {
			usr.MembershipStage = user.StagePre
		}
		if usr.ConverseID == "" {
			usr.ConverseID = NewConverseID()
		}
	case AppRejected:
		usr.MemberStatus = user.StatusDenied
	}
	usr.UpdatedAt = now

	if app, err = svc.repo.UpdateApplication(app); err != nil {
		return Application{}, err
	}
	if _, err = svc.usrRepo.UpdateUser(usr, nil); err != nil {
		return Application{}, err
	}

	if syncMail {
		svc.sendReviewMail(usr, app)
	} else {
		go svc.sendReviewMail(usr, app)
	}
	return app, nil
}

func (svc *service) sendReviewMail(usr user.User, app Application) {
	var body string
	if app.Status == AppApproved {
		body = "Hi {{.Data.Name}},\n\n" +
			"Your membership application has been approved. Welcome!\n" +
			"Sign in to get started: {{.FrontendBaseURL}}/login"
	} else {
		body = "Hi {{.Data.Name}},\n\n" +
			"We are sorry, your membership application was not approved at this time."
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Membership Application Update",
		BodyTemplate: body,
		TemplateData: struct{ Name string }{usr.Name},
	})
}

// NewConverseID mints an opaque pseudonym shown in place of username/email.
func NewConverseID() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("OTO#%s", frag[:6])
}
