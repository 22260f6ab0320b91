package member

import (
	"time"

	"github.com/Petersomond1/ikoota-sub000/core"
)

// Application statuses
const (
	AppPending  = "pending"
	AppApproved = "approved"
	AppRejected = "rejected"
)

// Survey approval statuses, as reported to clients.
const (
	ApprovalNotSubmitted = "not_submitted"
	ApprovalPending      = "pending"
	ApprovalApproved     = "approved"
	ApprovalRejected     = "rejected"
)

// Application is a submitted membership questionnaire.
type Application struct {
	ID          int               `json:"id"`
	UserID      int               `json:"user_id"`
	Answers     map[string]string `json:"answers"`
	Status      string            `json:"status"`
	AdminNotes  string            `json:"admin_notes,omitempty"`
	ReviewedBy  int               `json:"reviewed_by,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"` // UTC
	ReviewedAt  time.Time         `json:"reviewed_at"`  // UTC; zero until reviewed
}

// SurveyResult is the server-reported survey/approval state. It is replaced
// wholesale on refresh, never mutated in place.
type SurveyResult struct {
	SurveyCompleted bool              `json:"survey_completed"`
	ApprovalStatus  string            `json:"approval_status"`
	NeedsSurvey     bool              `json:"needs_survey"`
	SurveyData      map[string]string `json:"survey_data,omitempty"`
}

// NewApplication contains the answers needed to submit an Application.
type NewApplication struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

func (na *NewApplication) Validate() error {
	for k, v := range na.Answers {
		na.Answers[k] = core.CleanString(v)
	}
	return core.Validate.Struct(na)
}

// ReviewDecision defines what an admin may provide to review an Application.
type ReviewDecision struct {
	Decision   string `json:"decision" validate:"required,oneof=approved rejected"`
	GrantStage string `json:"grant_stage" validate:"omitempty,oneof=pre full"`
	AdminNotes string `json:"admin_notes"`
}

func (rd *ReviewDecision) Validate() error {
	rd.Decision = core.CleanString(rd.Decision, true /* lower */)
	rd.GrantStage = core.CleanString(rd.GrantStage, true /* lower */)
	rd.AdminNotes = core.CleanString(rd.AdminNotes)
	return core.Validate.Struct(rd)
}
