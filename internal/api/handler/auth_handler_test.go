package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/event-system/internal/api/middleware"
	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterMemberInput) (*domain.Member, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Member, error)
	whoAmIFn   func(ctx context.Context, id *domain.Identity) (*domain.Member, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterMemberInput) (*domain.Member, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (string, *domain.Member, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) WhoAmI(ctx context.Context, id *domain.Identity) (*domain.Member, error) {
	return s.whoAmIFn(ctx, id)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterMemberInput) (*domain.Member, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Role != "student" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Member{ID: "m-1", Name: in.Name, Email: in.Email, Role: domain.RoleStudent, PasswordHash: "hash"}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"secret1","role":"student"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	member, ok := resp["member"].(map[string]any)
	if !ok || member["id"] != "m-1" || member["role"] != "student" {
		t.Fatalf("unexpected member payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatal("password hash leaked into response")
	}
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterMemberInput) (*domain.Member, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	for _, body := range []string{
		`{"name":"A","email":"not-an-email","password":"secret1","role":"student"}`,
		`{"name":"A","email":"a@example.com","password":"secret1","role":"admin"}`,
		`{"email":"a@example.com","password":"secret1","role":"student"}`,
	} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
		if code := httpCode(t, h.Register(c)); code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", body, code)
		}
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/auth/register", "not-json"), httptest.NewRecorder())
	if code := httpCode(t, h.Register(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Register_MemberExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterMemberInput) (*domain.Member, error) {
			return nil, domain.ErrMemberExists
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)

	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"name":"Bob","email":"bob@example.com","password":"secret1","role":"organizer"}`), httptest.NewRecorder())
	if err := h.Register(c); !errors.Is(err, domain.ErrMemberExists) {
		t.Fatalf("expected ErrMemberExists, got %v", err)
	}
}

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.Member, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.Member{ID: "m-1", Name: "Alice", Role: domain.RoleOrganizer}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, true)

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.Member == nil || resp.Member.Role != "organizer" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.TokenCookie || cookies[0].Value != "token123" {
		t.Fatalf("expected token cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Errorf("expected HttpOnly and Secure cookie, got %+v", cookies[0])
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrMemberNotFound} {
		stub := &stubAuthService{
			loginFn: func(context.Context, string, string) (string, *domain.Member, error) {
				return "", nil, want
			},
		}
		h := NewAuthHandler(stub, time.Hour, false)

		rec := httptest.NewRecorder()
		c := newEcho().NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"bad"}`), rec)
		if err := h.Login(c); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("expected no cookie on failed login")
		}
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{}, time.Hour, false)

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired token cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		whoAmIFn: func(_ context.Context, id *domain.Identity) (*domain.Member, error) {
			if id == nil {
				return nil, nil
			}
			return &domain.Member{ID: id.SubjectID, Name: "Sam", Role: id.Role}, nil
		},
	}
	h := NewAuthHandler(stub, time.Hour, false)
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), rec)
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("expected null for anonymous, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), rec)
	middleware.SetIdentity(c, &domain.Identity{SubjectID: "stu-1", Role: domain.RoleStudent})
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var m memberResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &m)
	if m.ID != "stu-1" || m.Name != "Sam" {
		t.Fatalf("unexpected member: %+v", m)
	}
}
