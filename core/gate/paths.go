package gate

import (
	"strings"

	"github.com/Petersomond1/ikoota-sub000/core/member"
)

// Well-known SPA paths.
const (
	LoginPath               = "/login"
	SignupPath              = "/signup"
	DashboardPath           = "/dashboard"
	AdminPath               = "/admin"
	TowncrierPath           = "/towncrier"
	IkoPath                 = "/iko"
	SurveyPath              = "/applicationsurvey"
	PendingVerificationPath = "/pending-verification"
)

// noAuthOnlyPaths are reachable by guests only; an authenticated visitor is
// bounced to their landing path.
var noAuthOnlyPaths = map[string]bool{
	LoginPath:  true,
	SignupPath: true,
}

// statusLanding maps each canonical status to its default landing path.
var statusLanding = map[member.CanonicalStatus]string{
	member.StatusGuest:               LoginPath,
	member.StatusNeedsApplication:    SurveyPath,
	member.StatusPendingVerification: PendingVerificationPath,
	member.StatusPreMember:           TowncrierPath,
	member.StatusFullMember:          IkoPath,
	member.StatusAdmin:               AdminPath,
	member.StatusDenied:              DashboardPath,
	member.StatusSuspended:           DashboardPath,
}

// memberOnlyPrefixes guard "wrong-area" navigation for visitors who are not
// members yet. The list is product-specific and grows with the route table.
var memberOnlyPrefixes = []string{
	IkoPath,
}

// LandingPath returns the default landing path for a status.
func LandingPath(status member.CanonicalStatus) string {
	if p, ok := statusLanding[status]; ok {
		return p
	}
	return DashboardPath
}

func isNoAuthOnly(path string) bool {
	return noAuthOnlyPaths[path]
}

func hasMemberOnlyPrefix(path string) bool {
	for _, prefix := range memberOnlyPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
