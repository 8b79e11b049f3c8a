package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/campus-events/event-system/internal/api/middleware"
	"github.com/campus-events/event-system/internal/core/domain"
)

// identity returns the caller resolved by the Authenticate middleware, or
// nil for anonymous requests. Handlers pass it through unchanged: whether
// anonymous is acceptable is the service's decision.
func identity(c echo.Context) *domain.Identity {
	return middleware.IdentityFrom(c)
}
