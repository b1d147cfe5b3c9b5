// Package server собирает HTTP сервис профилей: хранилище, токены, маршруты и middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iudanet/agroprofile/internal/server/config"
	"github.com/iudanet/agroprofile/internal/server/jwt"
	"github.com/iudanet/agroprofile/internal/server/middleware"
	"github.com/iudanet/agroprofile/internal/server/storage/sqlite"
)

// App HTTP сервер вместе с его зависимостями
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *sqlite.Storage
	limiter *middleware.RateLimiter
	cfg     *config.Config
}

// New открывает базу (с миграциями) и собирает роутер
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	db, err := sqlite.New(ctx, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}

	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger,
		middleware.WithTrustedProxy(cfg.RateLimit.TrustProxy))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := NewRouter(RouterDeps{
		Logger:   logger,
		Users:    db,
		Tokens:   tokens,
		Limiter:  limiter,
		Registry: reg,
		Version:  version,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		limiter: limiter,
		cfg:     cfg,
	}, nil
}

// Run слушает адрес из конфига до отмены ctx, затем graceful shutdown
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.close()
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve обслуживает уже открытый listener. Закрывает базу при выходе.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", ln.Addr().String()))
		err := a.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// ctx уже отменен, для shutdown нужен свой
		timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down HTTP server gracefully")
		if err := a.server.Shutdown(timeoutCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

func (a *App) close() {
	a.limiter.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", slog.Any("error", err))
	}
}
