package gate

import (
	"net/url"

	"github.com/Petersomond1/ikoota-sub000/core/member"
)

// RoutePolicy is declared once per protected view at route-table construction
// time and never mutated at runtime.
type RoutePolicy struct {
	RequireAuth      bool
	RequireAdmin     bool
	RequireMember    bool
	RequirePreMember bool
	AllowPending     []member.CanonicalStatus
	RedirectDefault  string
}

// Decision is the gate's outcome: render the view, or redirect.
type Decision struct {
	Render     bool
	RedirectTo string
}

func redirect(to string) Decision { return Decision{RedirectTo: to} }

// Authorize evaluates a route policy against the visitor's canonical status.
// Rules apply in order, first match wins; an undecidable combination resolves
// to the most restrictive outcome (redirect), never to rendering by accident.
func Authorize(policy RoutePolicy, status member.CanonicalStatus, currentPath string) Decision {
	redirectDefault := policy.RedirectDefault
	if redirectDefault == "" {
		redirectDefault = DashboardPath
	}

	// 1. public routes render; authenticated visitors are bounced off
	// guest-only pages (login/signup) to their landing path.
	if !policy.RequireAuth {
		if status != member.StatusGuest && isNoAuthOnly(currentPath) {
			return redirect(LandingPath(status))
		}
		return Decision{Render: true}
	}

	// 2. guests go to login, preserving the origin for post-login return.
	if status == member.StatusGuest {
		return redirect(LoginPath + "?from=" + url.QueryEscape(currentPath))
	}

	// 3. admin-only routes.
	if policy.RequireAdmin && status != member.StatusAdmin {
		return redirect(redirectDefault)
	}

	// 4. member-only routes: route non-members to the step they are at.
	if policy.RequireMember &&
		status != member.StatusFullMember && status != member.StatusAdmin {
		switch status {
		case member.StatusPreMember:
			return redirect(TowncrierPath)
		case member.StatusPendingVerification:
			return redirect(PendingVerificationPath)
		case member.StatusNeedsApplication:
			return redirect(SurveyPath)
		default:
			return redirect(redirectDefault)
		}
	}

	// 5. pre-member routes.
	if policy.RequirePreMember &&
		status != member.StatusPreMember && status != member.StatusFullMember && status != member.StatusAdmin {
		switch status {
		case member.StatusPendingVerification:
			return redirect(PendingVerificationPath)
		case member.StatusNeedsApplication:
			return redirect(SurveyPath)
		default:
			return redirect(redirectDefault)
		}
	}

	// 6. allow-listed statuses render as-is; no secondary redirection in this
	// branch, it would loop with the rules above.
	if len(policy.AllowPending) > 0 {
		for _, allowed := range policy.AllowPending {
			if status == allowed {
				return Decision{Render: true}
			}
		}
		return redirect(redirectDefault)
	}

	// 7. wrong-area guards: not-yet-members navigating member areas are sent
	// back to the step they are at. Everything else renders.
	if hasMemberOnlyPrefix(currentPath) {
		switch status {
		case member.StatusNeedsApplication:
			return redirect(SurveyPath)
		case member.StatusPendingVerification:
			return redirect(PendingVerificationPath)
		}
	}
	return Decision{Render: true}
}
