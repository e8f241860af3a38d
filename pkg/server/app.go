package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labstack/echo/v4"

	"MarketMood/internal/scheduler"
	"MarketMood/pkg/config"
	xhttp "MarketMood/pkg/http"
	applogger "MarketMood/pkg/logger"
)

// Closer releases an infrastructure resource during shutdown.
type Closer func() error

// App encapsulates the application lifecycle: cron jobs, the HTTP server, and
// infrastructure teardown.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	notifier  *scheduler.Notifier
	refresher *scheduler.Refresher
	handlers  []xhttp.Handler

	cron       *gocron.Scheduler
	httpServer *xhttp.Server
	closers    []Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	notifier *scheduler.Notifier,
	refresher *scheduler.Refresher,
	handlers []xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    lgr,
		notifier:  notifier,
		refresher: refresher,
		handlers:  handlers,
		cron:      gocron.NewScheduler(time.UTC),
	}
}

// AddCloser registers a resource to release on shutdown, closed in reverse
// registration order.
func (a *App) AddCloser(c Closer) { a.closers = append(a.closers, c) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the store before the first tick so early requests and the first
	// due notifications have data to serve.
	go a.refresher.RefreshAll(ctx)

	if _, err := a.cron.Every(a.cfg.Scheduler.TickInterval).SingletonMode().Do(func() {
		a.notifier.Tick(ctx)
	}); err != nil {
		return err
	}
	if _, err := a.cron.Every(a.cfg.Scheduler.ForcedRefreshInterval).SingletonMode().Do(func() {
		a.refresher.RefreshAll(ctx)
	}); err != nil {
		return err
	}
	if _, err := a.cron.Every(1).Day().At("03:00").Do(func() {
		a.refresher.PruneOld(ctx)
	}); err != nil {
		return err
	}
	a.cron.StartAsync()
	a.logger.Info("scheduler started",
		applogger.Duration("tick_interval", a.cfg.Scheduler.TickInterval),
		applogger.Duration("refresh_interval", a.cfg.Scheduler.ForcedRefreshInterval),
	)

	a.httpServer = xhttp.NewServer(multiHandler(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.cron.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}

// multiHandler registers several route groups on one Echo instance.
func multiHandler(handlers []xhttp.Handler) xhttp.Handler {
	return handlerFunc(func(e *echo.Echo) {
		for _, h := range handlers {
			if h != nil {
				h.RegisterRoutes(e)
			}
		}
	})
}

type handlerFunc func(e *echo.Echo)

func (f handlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }
