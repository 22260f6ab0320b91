package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	echoapi "github.com/Petersomond1/ikoota-sub000/apps/api/echo"
	"github.com/Petersomond1/ikoota-sub000/core"
	"github.com/Petersomond1/ikoota-sub000/core/member"
	"github.com/Petersomond1/ikoota-sub000/core/session"
	"github.com/Petersomond1/ikoota-sub000/core/user"
	testutil "github.com/Petersomond1/ikoota-sub000/tests"
)

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "LolC@t123", "", true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog06", "ndog@test.cd", "LolC@t123", "", false)
	banned := testutil.CreateUser(t, usrRepo, "Banned", "banned06", "banned@test.cd", "LolC@t123", "", true)
	banned = testutil.SetMemberStatus(t, usrRepo, banned, user.StatusSuspended)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: reqMsg, Password: reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: naughty.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "suspended user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: banned.Username, Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account suspended"}),
		},
		{
			name: "login with username", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "LolC@t123"}),
		},
		{
			name: "login with email", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Username: usr.Email, Password: "LolC@t123"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				if respData.User.ID != usr.ID {
					t.Errorf("failed! user ID = %d; want %d", respData.User.ID, usr.ID)
				}
				if respData.User.LastLogin.IsZero() {
					t.Error("failed! lastLogin not set")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog06", "ndog@test.cd", "", "", false)
	usr := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", "", true)

	now := time.Now()
	unrefreshableClaims := &session.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  "Ikoota",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, usr), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.TokenResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_logout(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", "", true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Logged out", token: getToken(t, usr), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "logged out"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/auth/logout"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_authApi_routeCheck(t *testing.T) {
	app := setup(t)

	fullMember := testutil.CreateUser(t, usrRepo, "Member", "member06", "member@test.cd", "", "", true)
	fullMember = testutil.GrantMembership(t, usrRepo, fullMember, user.StageFull)
	preMember := testutil.CreateUser(t, usrRepo, "Novice", "novice06", "novice@test.cd", "", "", true)
	preMember = testutil.GrantMembership(t, usrRepo, preMember, user.StagePre)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin06", "admin@test.cd", "", user.RoleAdmin, true)

	// applied, no questionnaire submitted yet
	applicant := testutil.CreateUser(t, usrRepo, "Applicant", "applic06", "applicant@test.cd", "", "", true)
	applicant = testutil.SetMemberStatus(t, usrRepo, applicant, user.StatusApplied)

	// applied with a questionnaire awaiting review
	waiting := testutil.CreateUser(t, usrRepo, "Waiting", "waiting06", "waiting@test.cd", "", "", true)
	waiting = testutil.SetMemberStatus(t, usrRepo, waiting, user.StatusApplied)
	if _, err := memRepo.CreateApplication(member.Application{
		UserID:      waiting.ID,
		Answers:     map[string]string{"why": "knowledge"},
		Status:      member.AppPending,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}

	path := func(p string) string {
		return "/v1/auth/route-check?path=" + url.QueryEscape(p)
	}
	decision := func(status member.CanonicalStatus, render bool, redirectTo string) []byte {
		return marchallObj(t, echoapi.RouteCheckResponse{Status: status, Render: render, RedirectTo: redirectTo})
	}

	tests := []httpTest{
		{
			name: "path required", path: "/v1/auth/route-check", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"path": "path is required"}),
		},
		{
			name: "guest on protected route goes to login preserving origin", path: path("/dashboard"),
			wantData: decision(member.StatusGuest, false, "/login?from=%2Fdashboard"),
		},
		{
			name: "guest on login renders", path: path("/login"),
			wantData: decision(member.StatusGuest, true, ""),
		},
		{
			name: "member bounced off login to their landing", path: path("/login"), token: getToken(t, fullMember),
			wantData: decision(member.StatusFullMember, false, "/iko"),
		},
		{
			name: "member on member route renders", path: path("/iko"), token: getToken(t, fullMember),
			wantData: decision(member.StatusFullMember, true, ""),
		},
		{
			name: "member on admin route goes to dashboard", path: path("/admin"), token: getToken(t, fullMember),
			wantData: decision(member.StatusFullMember, false, "/dashboard"),
		},
		{
			name: "admin on admin route renders", path: path("/admin"), token: getToken(t, admin),
			wantData: decision(member.StatusAdmin, true, ""),
		},
		{
			name: "pre-member on towncrier renders", path: path("/towncrier"), token: getToken(t, preMember),
			wantData: decision(member.StatusPreMember, true, ""),
		},
		{
			name: "pre-member on member route goes to towncrier", path: path("/iko"), token: getToken(t, preMember),
			wantData: decision(member.StatusPreMember, false, "/towncrier"),
		},
		{
			name: "applicant without survey goes to the survey", path: path("/iko"), token: getToken(t, applicant),
			wantData: decision(member.StatusNeedsApplication, false, "/applicationsurvey"),
		},
		{
			name: "applicant on survey page renders", path: path("/applicationsurvey"), token: getToken(t, applicant),
			wantData: decision(member.StatusNeedsApplication, true, ""),
		},
		{
			name: "submitted applicant waits for verification", path: path("/iko"), token: getToken(t, waiting),
			wantData: decision(member.StatusPendingVerification, false, "/pending-verification"),
		},
		{
			name: "submitted applicant on status page renders", path: path("/pending-verification"), token: getToken(t, waiting),
			wantData: decision(member.StatusPendingVerification, true, ""),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
