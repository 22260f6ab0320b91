package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Petersomond1/ikoota-sub000/core/user"
)

// adminMiddleware restricts an endpoint to admin users. A minimum role may be
// provided to restrict it further (eg. user.RoleSuperAdmin).
func adminMiddleware(minRole ...string) echo.MiddlewareFunc {
	min := user.RoleAdmin
	if len(minRole) > 0 {
		min = minRole[0]
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if user.RolePriority(claims.Role) >= user.RolePriority(min) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
