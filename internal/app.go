package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deckd/internal/controllers"
	"deckd/internal/persistence"
	"deckd/internal/persistence/interfaces"
	"deckd/internal/playback"
	"deckd/internal/providers"
	"deckd/internal/services"
	"deckd/internal/structures"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	WebServer  *http.Server
	conf       *structures.Config
	logger     providers.Logger
	scheduler  interfaces.SchedulerInterface
	persister  *persistence.Persister
	service    services.DeckServiceInterface
	rasterizer playback.Rasterizer
}

func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, persister *persistence.Persister, service services.DeckServiceInterface, rasterizer playback.Rasterizer, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) *App {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:       conf,
		logger:     logger,
		scheduler:  scheduler,
		persister:  persister,
		service:    service,
		rasterizer: rasterizer,
	}
}

// Run restores saved sessions, serves until SIGINT/SIGTERM or ctx is done,
// then drains pending changes and writes the session file.
func (app *App) Run(ctx context.Context) error {
	app.logger.Infof(providers.TypeApp, "Starting %s", app.conf.AppName)
	if err := app.scheduler.Restore(); err != nil {
		app.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	app.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	return errors.Join(runErr, app.shutdown())
}

func (app *App) shutdown() error {
	app.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.WebServer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.scheduler.Persist(); err != nil {
		errs = append(errs, fmt.Errorf("persist sessions: %w", err))
	}
	if err := app.persister.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain changes: %w", err))
	}
	if err := app.rasterizer.Close(); err != nil {
		app.logger.Warnf(providers.TypeApp, "Closing rasterizer: %s", err)
	}
	app.service.Close()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
