package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/campus-events/event-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps each domain error kind to its HTTP status code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Domain errors carry a client-safe message after the kind prefix.
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, detail(err, domain.ErrInvalidInput)
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, detail(err, domain.ErrConflict)
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, detail(err, domain.ErrUnauthenticated)
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, detail(err, domain.ErrUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, detail(err, domain.ErrNotFound)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// detail strips the "<kind>: " prefix, so ErrEventNotFound renders as
// "event not found" and ErrAlreadyRegistered as "already registered for
// this event".
func detail(err, kind error) string {
	msg := err.Error()
	prefix := kind.Error() + ": "
	if rest, ok := strings.CutPrefix(msg, prefix); ok {
		if kind == domain.ErrNotFound {
			return rest + " not found"
		}
		return rest
	}
	return msg
}
