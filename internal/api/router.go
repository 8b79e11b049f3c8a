package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/campus-events/event-system/internal/api/handler"
	"github.com/campus-events/event-system/internal/api/middleware"
	"github.com/campus-events/event-system/internal/core/policy"
	"github.com/campus-events/event-system/internal/core/ports"
	"github.com/campus-events/event-system/internal/infrastructure/http/handlers"
)

const metricsSubsystem = "campus_events_http"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth   ports.AuthService
	Events ports.EventService
	Tokens ports.TokenService
	Health *handlers.HealthHandler

	TokenTTL     time.Duration
	SecureCookie bool
	// UploadDir is served at /uploads when non-empty.
	UploadDir string
	BodyLimit string
	Log       zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(d.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))
	if d.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(d.BodyLimit))
	}
	e.Use(middleware.Authenticate(d.Tokens))

	// --- Health, metrics and docs (no auth required) ---
	if d.Health != nil {
		e.GET("/health", d.Health.Liveness)
		e.GET("/health/ready", d.Health.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth, d.TokenTTL, d.SecureCookie)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/me", authHandler.Me)

	// --- Event routes ---
	// Reads are public. Mutations pass RBAC first so a caller whose role can
	// never succeed is turned away before an upload is read.
	eventHandler := handler.NewEventHandler(d.Events)
	v1 := e.Group("/v1")
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.Get)
	v1.POST("/events", eventHandler.Create, middleware.RBAC(policy.ActionCreateEvent))
	v1.PUT("/events/:id", eventHandler.Update, middleware.RBAC(policy.ActionUpdateEvent))
	v1.DELETE("/events/:id", eventHandler.Delete, middleware.RBAC(policy.ActionDeleteEvent))
	v1.POST("/events/:id/registrations", eventHandler.Register, middleware.RBAC(policy.ActionRegisterEvent))
	v1.POST("/events/:id/reviews", eventHandler.Review, middleware.RBAC(policy.ActionSubmitReview))
	v1.GET("/me/registrations", eventHandler.MyRegistrations, middleware.RequireIdentity())

	return e
}

// requestLogger emits one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
