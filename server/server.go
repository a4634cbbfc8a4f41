// Package server hosts the orbita HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/orbita/internal/observability"
	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/plugin/ai/manager"
	"github.com/hrygo/orbita/server/middleware"
	apiv1 "github.com/hrygo/orbita/server/router/api/v1"
)

// Server wires the API routes and middlewares into echo.
type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
}

// NewServer creates the HTTP server for a conversation runner.
func NewServer(profile *profile.Profile, conv *manager.Conversation, metrics *observability.Metrics) *Server {
	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(echomiddleware.RequestID())

	s := &Server{
		Profile:    profile,
		echoServer: echoServer,
		apiV1:      apiv1.NewAPIV1Service(conv, metrics),
	}

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	limiter := middleware.NewRateLimiter(profile.APIRequestsPerSecond, 0)
	apiGroup := echoServer.Group("/api/v1",
		middleware.JWTAuth(profile.JWTSecret),
		middleware.RateLimit(limiter),
	)
	s.apiV1.RegisterRoutes(apiGroup)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.Profile.Addr, fmt.Sprintf("%d", s.Profile.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	s.echoServer.Listener = listener
	slog.Info("orbita API listening", "addr", listener.Addr().String(), "auth", s.Profile.JWTSecret != "")

	errCh := make(chan error, 1)
	go func() {
		if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return s.Shutdown(context.Background())
}

// Shutdown stops the server, waiting up to 10 seconds for in-flight turns.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.echoServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	slog.Info("orbita API stopped")
	return nil
}
