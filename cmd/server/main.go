package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/calc-service/internal/config"
	"github.com/iliyamo/calc-service/internal/handler"
	"github.com/iliyamo/calc-service/internal/metrics"
	"github.com/iliyamo/calc-service/internal/middleware"
	"github.com/iliyamo/calc-service/internal/queue"
	"github.com/iliyamo/calc-service/internal/router"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("env", cfg.Env)
	slog.SetDefault(logger)

	e, closers := newServer(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Events.ConsumerEnabled {
		go func() {
			err := queue.StartCalculationConsumer(ctx, cfg.Events.URL, cfg.Events.Queue, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("calculation consumer stopped", "error", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	ops := map[string]gfshutdown.Operation{"http-server": e.Shutdown}
	ops["event-consumer"] = func(context.Context) error {
		cancel()
		return nil
	}
	for name, closeFn := range closers {
		ops[name] = closeFn
	}
	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, ops)
	code := <-wait
	logger.Info("exited", "code", code)
	os.Exit(code)
}

// newServer assembles the Echo instance and returns shutdown hooks for the
// external connections it opened. Redis and RabbitMQ are optional: when
// unreachable or disabled the corresponding feature is skipped.
func newServer(cfg config.Config, logger *slog.Logger) (*echo.Echo, map[string]gfshutdown.Operation) {
	closers := map[string]gfshutdown.Operation{}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		e.Use(m.Middleware())
	}

	var cache echo.MiddlewareFunc
	if cfg.Cache.Enabled {
		if rdb := config.NewRedisClient(cfg.Cache.Redis); rdb != nil {
			cache = middleware.NewRedisCache(cfg.Cache, rdb)
			closers["redis"] = func(context.Context) error { return rdb.Close() }
		} else {
			logger.Warn("redis unreachable; response cache disabled", "addr", cfg.Cache.Redis.Addr)
		}
	}

	var events handler.EventPublisher
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, logger)
		events = pub
		closers["event-publisher"] = func(context.Context) error { return pub.Close() }
	}

	router.RegisterRoutes(e, router.Deps{
		Calculate: handler.NewCalculateHandler(m, events, logger),
		Metrics:   m,
		Cache:     cache,
	})
	return e, closers
}
