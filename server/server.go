// Package server exposes the Base64 codec and the profile store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/presbrey/b64/base64"
	"github.com/presbrey/b64/config"
	"github.com/presbrey/b64/profiles"
)

// Server is the HTTP front end for the codec
type Server struct {
	cfg     *config.Config
	store   *profiles.Store
	codec   *base64.Codec
	metrics *Metrics
	e       *echo.Echo
}

// New builds a Server from cfg. store may be nil, in which case only the
// default codec is available and the profile routes answer 404.
func New(cfg *config.Config, store *profiles.Store) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	codec, err := cfg.NewCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to build default codec: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		codec:   codec,
		metrics: NewMetrics(),
		e:       echo.New(),
	}
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	e := s.e
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	if s.cfg.Metrics.Enabled {
		e.Use(s.metrics.Middleware(s.cfg.Metrics.Path))
		e.GET(s.cfg.Metrics.Path, s.metrics.Handler())
	}
	if s.cfg.Server.MaxBodyBytes > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", s.cfg.Server.MaxBodyBytes)))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/v1")
	v1.POST("/encode", s.handleEncode)
	v1.POST("/decode", s.handleDecode)
	v1.GET("/length/encoded", s.handleEncodedLength)
	v1.POST("/length/decoded", s.handleDecodedLength)
	v1.GET("/profiles", s.handleListProfiles)
	v1.POST("/profiles", s.handleCreateProfile)
	v1.GET("/profiles/:name", s.handleGetProfile)
	v1.DELETE("/profiles/:name", s.handleDeleteProfile)
}

// Echo returns the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// Metrics returns the server's Prometheus collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start listens on the configured address until Shutdown is called
func (s *Server) Start() error {
	addr := s.cfg.ListenAddress()
	log.Printf("b64d listening on %s", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// codecFor resolves a profile name to a codec; the empty name selects the default codec.
func (s *Server) codecFor(ctx context.Context, profile string) (*base64.Codec, error) {
	if profile == "" {
		return s.codec, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: %q", profiles.ErrNotFound, profile)
	}
	return s.store.Codec(ctx, profile)
}

// errorKind names the error class for metrics labels
func errorKind(err error) string {
	switch {
	case errors.Is(err, base64.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, base64.ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, base64.ErrConfiguration), errors.Is(err, profiles.ErrInvalid):
		return "configuration"
	case errors.Is(err, profiles.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// httpError maps domain errors to HTTP errors
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, base64.ErrInvalidEncoding):
		code = http.StatusBadRequest
	case errors.Is(err, base64.ErrBufferTooSmall):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, profiles.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, profiles.ErrExists):
		code = http.StatusConflict
	case errors.Is(err, base64.ErrConfiguration), errors.Is(err, profiles.ErrInvalid):
		code = http.StatusUnprocessableEntity
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}
