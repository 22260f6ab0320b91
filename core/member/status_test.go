package member

import (
	"testing"
	"time"

	"github.com/Petersomond1/ikoota-sub000/core/session"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

func ident(role, stage, status string) *session.Identity {
	return &session.Identity{
		SubjectID:       7,
		Username:        "kofi",
		Email:           "kofi@test.test",
		Role:            role,
		MembershipStage: stage,
		MemberStatus:    status,
		ExpiresAt:       time.Now().Add(time.Hour),
	}
}

func TestClassify(t *testing.T) {
	completed := &SurveyResult{SurveyCompleted: true, ApprovalStatus: ApprovalPending}
	needsSurvey := &SurveyResult{NeedsSurvey: true, ApprovalStatus: ApprovalNotSubmitted}

	tests := []struct {
		name   string
		ident  *session.Identity
		survey *SurveyResult
		want   CanonicalStatus
	}{
		{name: "nil identity is guest", want: StatusGuest},
		{name: "admin wins over membership fields", ident: ident(user.RoleAdmin, user.StageFull, user.StatusDenied), want: StatusAdmin},
		{name: "super admin is admin", ident: ident(user.RoleSuperAdmin, "", ""), want: StatusAdmin},
		{name: "approved full", ident: ident(user.RoleUser, user.StageFull, user.StatusApproved), want: StatusFullMember},
		{name: "approved pre", ident: ident(user.RoleUser, user.StagePre, user.StatusApproved), want: StatusPreMember},
		{name: "approved unknown stage fails closed", ident: ident(user.RoleUser, "whatever", user.StatusApproved), want: StatusNeedsApplication},
		{name: "applied, needs survey", ident: ident(user.RoleUser, user.StageNone, user.StatusApplied), survey: needsSurvey, want: StatusNeedsApplication},
		{name: "applied, no survey info", ident: ident(user.RoleUser, user.StageNone, user.StatusApplied), want: StatusNeedsApplication},
		{name: "applied, survey completed", ident: ident(user.RoleUser, user.StageNone, user.StatusApplied), survey: completed, want: StatusPendingVerification},
		{name: "pending, survey completed", ident: ident(user.RoleUser, user.StageNone, user.StatusPending), survey: completed, want: StatusPendingVerification},
		{name: "denied", ident: ident(user.RoleUser, user.StageNone, user.StatusDenied), want: StatusDenied},
		{name: "suspended", ident: ident(user.RoleUser, user.StageNone, user.StatusSuspended), want: StatusSuspended},
		{name: "unknown status fails closed", ident: ident(user.RoleUser, user.StageNone, "wat"), want: StatusNeedsApplication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ident, tt.survey); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			// pure: same inputs, same output
			if again := Classify(tt.ident, tt.survey); again != Classify(tt.ident, tt.survey) {
				t.Errorf("Classify() is not deterministic: %v != %v", again, Classify(tt.ident, tt.survey))
			}
		})
	}
}
