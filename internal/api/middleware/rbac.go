package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/policy"
)

// RBAC rejects a request before its body is read when the caller's role can
// never be allowed action. Ownership is not checked here: that needs the
// event, and the service decides it.
func RBAC(action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := policy.Authorize(IdentityFrom(c), action, policy.Resource{}).Err()
			if err != nil && !errors.Is(err, domain.ErrNotOwner) {
				return err
			}
			return next(c)
		}
	}
}
