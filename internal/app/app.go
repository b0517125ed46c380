// Package app contains the JSON web API.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/stolasapp/taskapi/internal/app/component"
	"github.com/stolasapp/taskapi/internal/config"
	"github.com/stolasapp/taskapi/internal/sec"
	"github.com/stolasapp/taskapi/internal/storage"
	"github.com/stolasapp/taskapi/internal/tasks"
)

// maxBodySize bounds request bodies; task and user payloads are small.
const maxBodySize = "64K"

// New creates the web API server. Every route except user registration
// requires HTTP basic authentication against users.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	users storage.Users,
	svc tasks.Handler,
) (*echo.Echo, error) {
	h := handler{svc: svc}
	if cfg.PublicURL != "" {
		links, err := component.NewLinks(cfg.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("invalid public URL %q: %w", cfg.PublicURL, err)
		}
		h.links = &links
	}

	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)
	srv.HTTPErrorHandler = errorHandler(logger)

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	srv.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: uuid.NewString,
		}),
		// decompress first so the limit applies to the decoded body
		middleware.Decompress(),
		middleware.BodyLimit(maxBodySize),
		middleware.Gzip(),
		middleware.Secure(),
	)

	h.register(srv, authenticate(users))
	return srv, nil
}

// authenticate resolves the basic auth credentials on every request it guards
// and stores the user in the request context. Any failure aborts the request
// before the handler runs.
func authenticate(users storage.Users) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			usr, err := sec.Authenticate(req.Context(), req, users)
			if err != nil {
				return err
			}
			ctx := sec.SetAuthenticatedUser(req.Context(), usr)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
