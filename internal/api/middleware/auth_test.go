package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/session"
)

func newTokens(t *testing.T) *session.Service {
	t.Helper()
	s, err := session.NewService("secret", time.Hour)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

// run passes req through Authenticate and returns the recorder and the
// identity the next handler saw (nil when it was not reached or anonymous).
func run(t *testing.T, tokens *session.Service, req *http.Request) (*httptest.ResponseRecorder, *domain.Identity, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Identity
	called := false
	h := Authenticate(tokens)(func(c echo.Context) error {
		called = true
		seen = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen, called
}

func TestAuthenticate_BearerToken(t *testing.T) {
	tokens := newTokens(t)
	signed, _ := tokens.Issue("org-1", domain.RoleOrganizer)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec, id, called := run(t, tokens, req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next to be called, got %d", rec.Code)
	}
	if id == nil || id.SubjectID != "org-1" || id.Role != domain.RoleOrganizer {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestAuthenticate_CookieToken(t *testing.T) {
	tokens := newTokens(t)
	signed, _ := tokens.Issue("stu-1", domain.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: signed})

	_, id, called := run(t, tokens, req)
	if !called || id == nil || id.SubjectID != "stu-1" {
		t.Fatalf("expected cookie identity, got %+v", id)
	}
}

func TestAuthenticate_NoTokenIsAnonymous(t *testing.T) {
	rec, id, called := run(t, newTokens(t), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || rec.Code != http.StatusOK || id != nil {
		t.Fatalf("expected anonymous pass-through, got called=%v code=%d id=%+v", called, rec.Code, id)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")

	rec, _, called := run(t, newTokens(t), req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got called=%v code=%d", called, rec.Code)
	}
}

func TestAuthenticate_BearerFromOtherKey(t *testing.T) {
	other, _ := session.NewService("other-secret", time.Hour)
	signed, _ := other.Issue("org-1", domain.RoleOrganizer)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec, _, called := run(t, newTokens(t), req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got called=%v code=%d", called, rec.Code)
	}
}

func TestAuthenticate_InvalidCookieIsExpired(t *testing.T) {
	other, _ := session.NewService("other-secret", time.Hour)
	signed, _ := other.Issue("org-1", domain.RoleOrganizer)

	for _, value := range []string{signed, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: value})

		rec, id, called := run(t, newTokens(t), req)
		if !called || rec.Code != http.StatusOK || id != nil {
			t.Fatalf("%q: expected anonymous pass-through, got called=%v code=%d id=%+v", value, called, rec.Code, id)
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != TokenCookie || cookies[0].MaxAge >= 0 {
			t.Errorf("%q: expected token cookie to be expired, got %+v", value, cookies)
		}
	}
}

func TestAuthenticate_InvalidHeaderFormat(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer   "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", h)

		rec, _, called := run(t, newTokens(t), req)
		if called || rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected 401, got called=%v code=%d", h, called, rec.Code)
		}
	}
}

func TestRequireIdentity(t *testing.T) {
	e := echo.New()
	h := RequireIdentity()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	SetIdentity(c, &domain.Identity{SubjectID: "stu-1", Role: domain.RoleStudent})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
