package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

const (
	identityKey = "identity"
	// TokenCookie is the cookie login sets and logout clears.
	TokenCookie = "token"
)

// Authenticate resolves the caller's identity from the Authorization header
// or, failing that, the token cookie. Requests without a token continue as
// anonymous. A bearer token that does not verify is rejected with 401; a
// cookie that does not verify is expired and the request continues as
// anonymous, so a stale cookie can never lock a browser out.
func Authenticate(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, fromCookie, err := tokenFrom(c.Request())
			if err != nil {
				return err
			}
			if raw == "" {
				return next(c)
			}

			id, err := tokens.Verify(raw)
			if err != nil {
				if fromCookie {
					expireTokenCookie(c)
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			SetIdentity(c, &id)
			return next(c)
		}
	}
}

func tokenFrom(r *http.Request) (raw string, fromCookie bool, err error) {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), false, nil
	}
	if ck, err := r.Cookie(TokenCookie); err == nil && ck.Value != "" {
		return ck.Value, true, nil
	}
	return "", false, nil
}

func expireTokenCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetIdentity attaches id to the request context.
func SetIdentity(c echo.Context, id *domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity Authenticate stored, or nil for an
// anonymous request.
func IdentityFrom(c echo.Context) *domain.Identity {
	id, _ := c.Get(identityKey).(*domain.Identity)
	return id
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IdentityFrom(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
