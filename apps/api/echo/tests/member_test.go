package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Petersomond1/ikoota-sub000/core/member"
	"github.com/Petersomond1/ikoota-sub000/core/user"
	emailsvc "github.com/Petersomond1/ikoota-sub000/services/email"
	testutil "github.com/Petersomond1/ikoota-sub000/tests"
)

func Test_memberApi_checkStatus(t *testing.T) {
	app := setup(t)

	fresh := testutil.CreateUser(t, usrRepo, "Fresh", "fresh06", "fresh@test.cd", "", "", true)
	waiting := testutil.CreateUser(t, usrRepo, "Waiting", "waiting06", "waiting@test.cd", "", "", true)
	waiting = testutil.SetMemberStatus(t, usrRepo, waiting, user.StatusApplied)

	answers := map[string]string{"why": "knowledge", "referral": "a friend"}
	if _, err := memRepo.CreateApplication(member.Application{
		UserID:      waiting.ID,
		Answers:     answers,
		Status:      member.AppPending,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}

	ghost := user.User{ID: 999, Username: "ghost06", Email: "ghost@test.cd"}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Unknown user", token: getToken(t, ghost),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "No survey submitted yet", token: getToken(t, fresh), wantCode: http.StatusOK,
			wantData: marchallObj(t, member.SurveyResult{
				SurveyCompleted: false,
				ApprovalStatus:  member.ApprovalNotSubmitted,
				NeedsSurvey:     true,
			}),
		},
		{
			name: "Survey awaiting review", token: getToken(t, waiting), wantCode: http.StatusOK,
			wantData: marchallObj(t, member.SurveyResult{
				SurveyCompleted: true,
				ApprovalStatus:  member.ApprovalPending,
				NeedsSurvey:     false,
				SurveyData:      answers,
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/membership/survey/check-status"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// repeated checks within the cool-down window serve the cached result
	t.Run("cached within cool-down", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/membership/survey/check-status", getToken(t, fresh))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}

		// a direct DB change is not visible until the cool-down elapses
		testutil.SetMemberStatus(t, usrRepo, fresh, user.StatusApplied)
		if _, err := memRepo.CreateApplication(member.Application{
			UserID:      fresh.ID,
			Answers:     map[string]string{"why": "later"},
			Status:      member.AppPending,
			SubmittedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("CreateApplication() failed: %v", err)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/membership/survey/check-status", getToken(t, fresh))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var res member.SurveyResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if res.SurveyCompleted {
			t.Error("failed! expected the cached (stale) result")
		}

		// invalidation forces a fresh fetch
		checker.Invalidate(fresh.ID)
		req, rec = newAuthRequest(http.MethodGet, "/v1/membership/survey/check-status", getToken(t, fresh))
		app.ServeHTTP(rec, req)
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !res.SurveyCompleted {
			t.Error("failed! expected a fresh result after invalidation")
		}
	})
}

func Test_memberApi_submit(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", "", true)
	memb := testutil.CreateUser(t, usrRepo, "Member", "member06", "member@test.cd", "", "", true)
	memb = testutil.GrantMembership(t, usrRepo, memb, user.StageFull)

	body := marchallObj(t, member.NewApplication{Answers: map[string]string{"why": "knowledge"}})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "answers required", token: getToken(t, usr), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		},
		{
			name: "already a member", token: getToken(t, memb), body: body, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "membership has already been granted"}),
		},
		{name: "submitted", token: getToken(t, usr), body: body, wantCode: http.StatusCreated},
		{
			name: "already submitted", token: getToken(t, usr), body: body, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "an application has already been submitted"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/membership/survey/submit"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData member.Application
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.UserID != usr.ID {
					t.Errorf("failed! user ID = %d; want %d", respData.UserID, usr.ID)
				}
				if respData.Status != member.AppPending {
					t.Errorf("failed! status = %s; want %s", respData.Status, member.AppPending)
				}

				refreshedUsr, err := usrRepo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if refreshedUsr.MemberStatus != user.StatusApplied {
					t.Errorf("failed! member status = %s; want %s", refreshedUsr.MemberStatus, user.StatusApplied)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_memberApi_queryApplications(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin06", "admin@test.cd", "", user.RoleAdmin, true)
	plain := testutil.CreateUser(t, usrRepo, "User", "awe06", "awe@test.cd", "", "", true)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, plain), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "No pending applications", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/membership/admin/applications"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Pending applications listed oldest first", func(t *testing.T) {
		now := time.Now().UTC()
		app2, err := memRepo.CreateApplication(member.Application{
			UserID: plain.ID, Answers: map[string]string{"why": "later"}, Status: member.AppPending, SubmittedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateApplication() failed: %v", err)
		}
		app1, err := memRepo.CreateApplication(member.Application{
			UserID: admin.ID, Answers: map[string]string{"why": "sooner"}, Status: member.AppPending, SubmittedAt: now.Add(-time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateApplication() failed: %v", err)
		}
		// reviewed applications are excluded
		if _, err = memRepo.CreateApplication(member.Application{
			UserID: plain.ID, Answers: map[string]string{"why": "done"}, Status: member.AppApproved, SubmittedAt: now,
		}); err != nil {
			t.Fatalf("CreateApplication() failed: %v", err)
		}

		tt := httpTest{
			method: http.MethodGet, path: "/v1/membership/admin/applications", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, app1, app2),
		}
		req, rec := newAuthRequest(tt.method, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_memberApi_review(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin06", "admin@test.cd", "", user.RoleAdmin, true)
	plain := testutil.CreateUser(t, usrRepo, "User", "awe06", "awe@test.cd", "", "", true)
	applicant := testutil.CreateUser(t, usrRepo, "Applicant", "applic06", "applicant@test.cd", "", "", true)
	applicant = testutil.SetMemberStatus(t, usrRepo, applicant, user.StatusApplied)
	loser := testutil.CreateUser(t, usrRepo, "Loser", "loser06", "loser@test.cd", "", "", true)
	loser = testutil.SetMemberStatus(t, usrRepo, loser, user.StatusApplied)

	now := time.Now().UTC()
	pendingApp, err := memRepo.CreateApplication(member.Application{
		UserID: applicant.ID, Answers: map[string]string{"why": "knowledge"}, Status: member.AppPending, SubmittedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}
	rejectApp, err := memRepo.CreateApplication(member.Application{
		UserID: loser.ID, Answers: map[string]string{"why": "lol"}, Status: member.AppPending, SubmittedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateApplication() failed: %v", err)
	}

	adminToken := getToken(t, admin)
	reviewPath := func(id string) string { return "/v1/membership/admin/applications/" + id + "/review" }
	approveBody := marchallObj(t, member.ReviewDecision{Decision: member.AppApproved, AdminNotes: "welcome aboard"})

	type extraTest struct {
		usrID      int
		wantStatus string
		wantStage  string
	}
	tests := []httpTest{
		{
			name: "Auth required", path: reviewPath(strconv.Itoa(pendingApp.ID)),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: reviewPath(strconv.Itoa(pendingApp.ID)), token: getToken(t, plain),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Non-numeric ID", path: reviewPath("lol"), token: adminToken, body: approveBody,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Unknown application", path: reviewPath("999"), token: adminToken, body: approveBody,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "decision required", path: reviewPath(strconv.Itoa(pendingApp.ID)), token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"decision": "this field is required"}),
		},
		{
			name: "invalid decision", path: reviewPath(strconv.Itoa(pendingApp.ID)), token: adminToken,
			body:     marchallObj(t, member.ReviewDecision{Decision: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"decision": "decision must be one of [approved rejected]"}),
		},
		{
			name: "invalid grant stage", path: reviewPath(strconv.Itoa(pendingApp.ID)), token: adminToken,
			body:     marchallObj(t, member.ReviewDecision{Decision: member.AppApproved, GrantStage: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grant_stage": "grant_stage must be one of [pre full]"}),
		},
		{
			name: "approved", path: reviewPath(strconv.Itoa(pendingApp.ID)), token: adminToken,
			body: approveBody, wantCode: http.StatusOK,
			extra: extraTest{usrID: applicant.ID, wantStatus: user.StatusApproved, wantStage: user.StagePre},
		},
		{
			name: "already reviewed", path: reviewPath(strconv.Itoa(pendingApp.ID)), token: adminToken,
			body: approveBody, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "application has already been reviewed"}),
		},
		{
			name: "rejected", path: reviewPath(strconv.Itoa(rejectApp.ID)), token: adminToken,
			body:     marchallObj(t, member.ReviewDecision{Decision: member.AppRejected, AdminNotes: "not this time"}),
			wantCode: http.StatusOK,
			extra:    extraTest{usrID: loser.ID, wantStatus: user.StatusDenied},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			extra, hasExtra := tt.extra.(extraTest)
			if !hasExtra {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var respData member.Application
			if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
				t.Errorf("json.Unmarshal() failed! err %v", err)
			}
			if respData.ReviewedBy != admin.ID {
				t.Errorf("failed! reviewed by = %d; want %d", respData.ReviewedBy, admin.ID)
			}
			if respData.ReviewedAt.IsZero() {
				t.Error("failed! reviewedAt not set")
			}

			refreshedUsr, err := usrRepo.GetUserByID(extra.usrID)
			if err != nil {
				t.Fatalf("GetUserByID() failed, %v", err)
			}
			if refreshedUsr.MemberStatus != extra.wantStatus {
				t.Errorf("failed! member status = %s; want %s", refreshedUsr.MemberStatus, extra.wantStatus)
			}
			if extra.wantStage != "" {
				if refreshedUsr.MembershipStage != extra.wantStage {
					t.Errorf("failed! membership stage = %s; want %s", refreshedUsr.MembershipStage, extra.wantStage)
				}
				if !strings.HasPrefix(refreshedUsr.ConverseID, "OTO#") {
					t.Errorf("failed! converse ID = %s; want OTO# prefix", refreshedUsr.ConverseID)
				}
			}

			// the applicant is notified
			if len(emailsvc.SentMessages) != 1 {
				t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
			}
			msg := emailsvc.SentMessages[0]
			wantTo := mail.Address{Name: refreshedUsr.Name, Address: refreshedUsr.Email}
			if msg.To[0] != wantTo {
				t.Errorf("failed! To = %v; want %v", msg.To[0], wantTo)
			}
			if msg.Subject != "Membership Application Update" {
				t.Errorf("failed! subject = %s", msg.Subject)
			}
		})
	}
}
