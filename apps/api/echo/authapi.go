package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Petersomond1/ikoota-sub000/core"
	"github.com/Petersomond1/ikoota-sub000/core/gate"
	"github.com/Petersomond1/ikoota-sub000/core/member"
	"github.com/Petersomond1/ikoota-sub000/core/session"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

// routePolicies declares the gate policy of each protected SPA area. Policies
// are matched by longest prefix; unknown paths require authentication.
var routePolicies = []struct {
	prefix string
	policy gate.RoutePolicy
}{
	{gate.AdminPath, gate.RoutePolicy{RequireAuth: true, RequireAdmin: true}},
	{gate.IkoPath, gate.RoutePolicy{RequireAuth: true, RequireMember: true}},
	{gate.TowncrierPath, gate.RoutePolicy{RequireAuth: true, RequirePreMember: true}},
	{gate.SurveyPath, gate.RoutePolicy{
		RequireAuth:  true,
		AllowPending: []member.CanonicalStatus{member.StatusNeedsApplication, member.StatusPendingVerification},
	}},
	{gate.PendingVerificationPath, gate.RoutePolicy{
		RequireAuth:  true,
		AllowPending: []member.CanonicalStatus{member.StatusPendingVerification, member.StatusNeedsApplication},
	}},
	{gate.DashboardPath, gate.RoutePolicy{RequireAuth: true}},
	{gate.LoginPath, gate.RoutePolicy{}},
	{gate.SignupPath, gate.RoutePolicy{}},
}

func policyFor(path string) gate.RoutePolicy {
	match := gate.RoutePolicy{RequireAuth: true}
	matchLen := -1
	for _, rp := range routePolicies {
		if path == rp.prefix || strings.HasPrefix(path, rp.prefix+"/") {
			if len(rp.prefix) > matchLen {
				match = rp.policy
				matchLen = len(rp.prefix)
			}
		}
	}
	return match
}

type authApi struct {
	usrSvc   user.Service
	checker  *member.Checker
	resolver *session.Resolver
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := authApi{
		usrSvc:   deps.UserSvc,
		checker:  deps.Checker,
		resolver: session.NewResolver([]byte(core.Conf.SecretKey)),
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.GET("/route-check", api.routeCheck) // bearer optional

	// authed endpoints
	tg := ag.Group("", jwt)
	tg.POST("/token-refresh", api.refreshToken)
	tg.POST("/logout", api.logout)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := authenticate(data.Username, data.Password, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

// logout drops the cached survey state for the subject so a fetch still in
// flight cannot repopulate it after the session is closed.
func (api *authApi) logout(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	api.checker.Invalidate(ident.SubjectID)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "logged out"})
}

// routeCheck evaluates the route gate for the SPA: given a path (and an
// optional bearer token), it reports the caller's canonical status and
// whether the view renders or redirects.
func (api *authApi) routeCheck(ctx echo.Context) error {
	path := ctx.QueryParam("path")
	if path == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "path", Error: "path is required"})
	}

	var ident *session.Identity
	if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		raw := strings.TrimPrefix(auth, "Bearer ")
		ident = api.resolver.Resolve(raw)
	}

	var survey *member.SurveyResult
	if ident != nil &&
		(ident.MemberStatus == user.StatusApplied || ident.MemberStatus == user.StatusPending) {
		// failure degrades to the last-known result; the classifier fails closed
		survey, _ = api.checker.Check(ctx.Request().Context(), ident.SubjectID)
	}

	status := member.Classify(ident, survey)
	decision := gate.Authorize(policyFor(path), status, path)

	return ctx.JSON(http.StatusOK, RouteCheckResponse{
		Status:     status,
		Render:     decision.Render,
		RedirectTo: decision.RedirectTo,
	})
}
