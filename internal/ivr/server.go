// Package ivr provides the Twilio webhook surface for capitolphone. Each
// webhook is validated, bound to its call record, dispatched to the
// handler for the caller's current menu, and answered with a TwiML
// document describing the next step of the call.
package ivr

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	twilioclient "github.com/twilio/twilio-go/client"
	"go.uber.org/zap"

	"github.com/sunlightlabs/capitolphone/internal/directory"
	"github.com/sunlightlabs/capitolphone/internal/events"
	"github.com/sunlightlabs/capitolphone/internal/legislators"
	"github.com/sunlightlabs/capitolphone/internal/store"
)

// Config holds webhook server configuration.
type Config struct {
	Host string
	Port int

	// PublicBaseURL is the base URL Twilio signs requests against. When
	// empty, the request's own scheme and host are used.
	PublicBaseURL string

	// AuthToken is the Twilio shared secret for signature validation.
	AuthToken string

	// AudioBaseURL locates the prerecorded prompt assets.
	AudioBaseURL string
}

// InfoDirectory provides the per-legislator data behind the info menu.
// *directory.Client satisfies it.
type InfoDirectory interface {
	TopContributors(ctx context.Context, bioguideID string) ([]directory.Contribution, error)
	RecentVotes(ctx context.Context, bioguideID string) ([]directory.Vote, error)
	Biography(ctx context.Context, bioguideID string) (string, error)
	Committees(ctx context.Context, bioguideID string) ([]directory.Committee, error)
}

// Server is the IVR webhook server.
type Server struct {
	echo      *echo.Echo
	store     store.Store
	cache     *legislators.Cache
	info      InfoDirectory
	events    *events.Publisher
	metrics   *Metrics
	validator twilioclient.RequestValidator
	prompts   prompts
	logger    *zap.Logger
	config    *Config
	now       func() time.Time
}

// NewServer creates the webhook server. The events publisher may be nil
// when the call-event stream is disabled.
func NewServer(
	s store.Store,
	cache *legislators.Cache,
	info InfoDirectory,
	publisher *events.Publisher,
	registry *prometheus.Registry,
	logger *zap.Logger,
	cfg *Config,
) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("legislator cache cannot be nil")
	}
	if info == nil {
		return nil, fmt.Errorf("info directory cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio auth token is required")
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	srv := &Server{
		echo:      e,
		store:     s,
		cache:     cache,
		info:      info,
		events:    publisher,
		metrics:   NewMetrics(registry, logger),
		validator: twilioclient.NewRequestValidator(cfg.AuthToken),
		prompts:   prompts{base: cfg.AudioBaseURL},
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(srv.metrics.Middleware())

	srv.registerRoutes(registry)

	return srv, nil
}

// registerRoutes sets up the webhook endpoints. Every /voice route runs
// the same interceptor chain: signature validation, then call-context
// loading with unconditional persistence after the handler.
func (s *Server) registerRoutes(registry *prometheus.Registry) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	voice := s.echo.Group("/voice", s.requireTwilioSignature, s.withCallContext)
	voice.GET("", s.handleStart)
	voice.POST("", s.handleStart)
	voice.POST("/zipcode", s.handleZipcode)
	voice.POST("/reps", s.handleReps)
	voice.POST("/rep", s.handleRep)
	voice.POST("/next/:selection", s.handleNext)
	voice.POST("/signup", s.handleSignup)
	voice.POST("/message", s.handleMessage)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting ivr server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ivr server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
