package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Petersomond1/ikoota-sub000/core/member"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

type memberApi struct {
	svc     member.Service
	checker *member.Checker
}

func registerMemberAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := memberApi{
		svc:     deps.MemberSvc,
		checker: deps.Checker,
	}

	mg := g.Group("/membership", jwt)

	sg := mg.Group("/survey")
	sg.GET("/check-status", api.checkStatus)
	sg.POST("/submit", api.submit)

	adm := mg.Group("/admin", adminMiddleware())
	adm.GET("/applications", api.queryApplications)
	adm.PUT("/applications/:id/review", api.review)
}

// Handlers

// checkStatus reports the caller's survey/approval state. Lookups go through
// the checker: concurrent calls share one fetch, calls inside the cool-down
// window are served from cache, and a failed fetch falls back to the
// last-known result.
func (api *memberApi) checkStatus(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	result, err := api.checker.Check(ctx.Request().Context(), ident.SubjectID)
	if result == nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "checking survey status")
	}
	return ctx.JSON(http.StatusOK, result)
}

func (api *memberApi) submit(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	var data member.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	app, err := api.svc.Submit(ident.SubjectID, data)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "submitting application")
	}

	// the caller's status just moved; next check must not serve stale cache
	api.checker.Invalidate(ident.SubjectID)

	return ctx.JSON(http.StatusCreated, app)
}

func (api *memberApi) queryApplications(ctx echo.Context) error {
	apps, err := api.svc.PendingApplications()
	if err != nil {
		return errors.Wrap(err, "querying pending applications")
	}
	if apps == nil {
		apps = []member.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *memberApi) review(ctx echo.Context) error {
	appID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	ident, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	var data member.ReviewDecision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewDecision")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	app, err := api.svc.Review(ident.SubjectID, appID, data)
	if err != nil {
		if errors.Cause(err) == member.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "reviewing application")
	}

	// reflect the decision on the applicant's next status check
	api.checker.Invalidate(app.UserID)

	return ctx.JSON(http.StatusOK, app)
}
