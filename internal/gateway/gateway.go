// Package gateway implements the server side of the cookie-based auth
// variant: browsers hold an opaque HttpOnly session cookie while the backend
// access/refresh pair stays server-side, rotated transparently on expiry.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	oapimiddleware "github.com/oapi-codegen/echo-middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/medisur/hmis-go/internal/storage"
	"github.com/medisur/hmis-go/internal/util"
)

const (
	shutdownTimeout      = 5 * time.Second
	sessionSweepInterval = time.Hour
)

type Gateway struct {
	server          *echo.Echo
	log             *zap.SugaredLogger
	cfg             *util.GatewayConfig
	sessions        storage.GatewaySessionRepository
	revocations     storage.RevocationRepository
	backend         *http.Client
	refreshes       singleflight.Group
	notifier        *Notifier
	gracefulTimeout time.Duration
	cleanupFuncs    []func()
}

func New(
	sc *util.ServerConfig,
	cfg *util.GatewayConfig,
	sessions storage.GatewaySessionRepository,
	revocations storage.RevocationRepository,
	log *zap.SugaredLogger,
	cleanupFuncs []func(),
) *Gateway {
	e := echo.New()
	e.HideBanner = true

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(log)

	return &Gateway{
		server:          e,
		log:             log,
		cfg:             cfg,
		sessions:        sessions,
		revocations:     revocations,
		backend:         &http.Client{Timeout: 30 * time.Second},
		notifier:        NewNotifier(log, cfg.WebhookURL),
		gracefulTimeout: sc.GracefulTimeout,
		cleanupFuncs:    cleanupFuncs,
	}
}

// RegisterRoutes wires middleware and routes. The /auth group is validated
// against the OpenAPI document when one is configured.
func (g *Gateway) RegisterRoutes() error {
	g.server.Use(echomiddleware.RequestLoggerWithConfig(requestLoggerConfig(g.log)))
	g.server.Use(MetricsMiddleware())
	g.server.Use(RateLimitMiddleware(util.NewRateLimiterConfig()))

	auth := g.server.Group("/auth")
	if g.cfg.OpenAPISpec != "" {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromFile(g.cfg.OpenAPISpec)
		if err != nil {
			return err
		}
		if err := doc.Validate(loader.Context); err != nil {
			return err
		}
		doc.Servers = nil
		auth.Use(oapimiddleware.OapiRequestValidator(doc))
	}
	auth.POST("/login", g.handleLogin)
	auth.POST("/refresh", g.handleRefresh)
	auth.POST("/logout", g.handleLogout)

	g.server.Any("/api/*", g.handleProxy)

	g.server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	g.server.GET("/metrics", echo.WrapHandler(promhttp.Handler()), MetricsKeyMiddleware(g.cfg.MetricsAPIKey))

	return nil
}

func (g *Gateway) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := g.RegisterRoutes(); err != nil {
		g.log.Fatalf("Failed to register routes: %v", err)
	}

	g.startSessionSweeper(ctx)
	g.ListenGracefulShutdown(ctx)
}

// startSessionSweeper periodically removes gateway_sessions rows whose
// cookies have expired. Expired sessions are already rejected at resolve
// time; the sweep only keeps the table from growing without bound.
func (g *Gateway) startSessionSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				g.sweepExpiredSessions(ctx, now.UTC())
			}
		}
	}()
}

func (g *Gateway) sweepExpiredSessions(ctx context.Context, now time.Time) {
	n, err := g.sessions.DeleteExpired(ctx, now)
	if err != nil {
		g.log.Errorw("failed to sweep expired sessions", "error", err)
		return
	}
	if n > 0 {
		g.log.Infow("expired sessions removed", "count", n)
	}
}

func (g *Gateway) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := g.server.Start(g.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	g.log.Infof("Session gateway listening on: %s", g.server.Server.Addr)

	<-ctx.Done()
	g.log.Info("Shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := g.server.Shutdown(shutdownCtx); err != nil {
		g.log.Errorf("shutdown: %v", err)
	}

	for _, cleanup := range g.cleanupFuncs {
		cleanup()
	}

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			g.log.Info("gateway shutdown completed")
		} else {
			g.log.Errorf("gateway shutdown: %v", ctx.Err())
		}
	case <-time.After(g.gracefulTimeout):
		g.log.Info("finished")
	}
}
