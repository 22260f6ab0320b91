package member

import (
	"github.com/Petersomond1/ikoota-sub000/core/session"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

// CanonicalStatus is the closed set of states a visitor can occupy.
// Exactly one applies at any instant.
type CanonicalStatus string

const (
	StatusGuest               CanonicalStatus = "guest"
	StatusNeedsApplication    CanonicalStatus = "needs_application"
	StatusPendingVerification CanonicalStatus = "pending_verification"
	StatusPreMember           CanonicalStatus = "pre_member"
	StatusFullMember          CanonicalStatus = "full_member"
	StatusAdmin               CanonicalStatus = "admin"
	StatusDenied              CanonicalStatus = "denied"
	StatusSuspended           CanonicalStatus = "suspended"
)

// Classify derives the canonical status from a decoded identity and the
// last-reported survey state. It is a pure function; rules are evaluated
// top-to-bottom and the first match wins. An ambiguous combination falls
// through to needs_application rather than granting access.
func Classify(ident *session.Identity, survey *SurveyResult) CanonicalStatus {
	if ident == nil {
		return StatusGuest
	}
	if ident.Role == user.RoleAdmin || ident.Role == user.RoleSuperAdmin {
		return StatusAdmin
	}

	switch ident.MemberStatus {
	case user.StatusApproved:
		switch ident.MembershipStage {
		case user.StageFull:
			return StatusFullMember
		case user.StagePre:
			return StatusPreMember
		}
	case user.StatusApplied, user.StatusPending:
		if survey == nil || survey.NeedsSurvey || !survey.SurveyCompleted {
			return StatusNeedsApplication
		}
		return StatusPendingVerification
	case user.StatusDenied:
		return StatusDenied
	case user.StatusSuspended:
		return StatusSuspended
	}

	return StatusNeedsApplication
}
