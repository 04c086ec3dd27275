package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/rediminute/internal/core/service"
	"github.com/yndnr/rediminute/internal/infra/buildinfo"
	"github.com/yndnr/rediminute/internal/infra/confloader"
	"github.com/yndnr/rediminute/internal/infra/shutdown"
	"github.com/yndnr/rediminute/internal/pubsub"
	"github.com/yndnr/rediminute/internal/server/config"
	"github.com/yndnr/rediminute/internal/server/httpserver"
	"github.com/yndnr/rediminute/internal/server/httpserver/handler"
	"github.com/yndnr/rediminute/internal/server/lineserver"
	"github.com/yndnr/rediminute/internal/server/redisserver"
	"github.com/yndnr/rediminute/internal/storage/memory"
	"github.com/yndnr/rediminute/internal/telemetry/logger"
	"github.com/yndnr/rediminute/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func run(cfg *config.ServerConfig, src configSource) error {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := logger.Slog(log)

	sanitized := config.Sanitize(cfg)
	log.Info("starting rediminute-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Get().Commit,
		"config", src.file,
		"line_addr", sanitized.Server.Line.Addr,
		"redis_addr", sanitized.Server.Redis.Addr,
		"http_addr", sanitized.Server.HTTP.Addr,
		"idle_timeout", cfg.Server.IdleTimeout,
	)

	metrics := metric.NewRegistry()

	store := memory.New(memory.WithShardCount(cfg.Storage.ShardCount))
	registry := pubsub.NewRegistry()
	notifier := pubsub.NewNotifier(registry,
		pubsub.WithDeliveryTimeout(cfg.PubSub.DeliveryTimeout),
		pubsub.WithLogger(slogLogger),
		pubsub.WithObserver(metrics),
	)
	dispatcher := service.NewDispatcher(store, registry, notifier,
		service.WithLogger(slogLogger),
		service.WithObserver(metrics),
	)
	metrics.MustRegister(metric.NewCollector(dispatcher))

	ctx, cancel := context.WithCancel(context.Background())
	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse: listeners close first, the base context last.
	shutdownHandler.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})

	listeners := make(map[string]handler.ConnCounter)
	var api *handler.Handler

	if err := startListeners(ctx, cfg, dispatcher, metrics, slogLogger, shutdownHandler, listeners, &api); err != nil {
		log.Error("startup failed", "error", err)
		shutdownHandler.Trigger()
		_ = shutdownHandler.Wait()
		return err
	}

	if src.file != "" {
		watcher, err := watchLogLevel(src, slogLogger)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if api != nil {
		api.SetReady(true)
	}
	log.Info("server started, press Ctrl+C to stop")

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// startListeners starts every enabled listener and registers its shutdown
// hook. The HTTP server starts last so /stats sees every listener.
func startListeners(
	ctx context.Context,
	cfg *config.ServerConfig,
	dispatcher *service.Dispatcher,
	metrics *metric.Registry,
	log *slog.Logger,
	sh *shutdown.Handler,
	listeners map[string]handler.ConnCounter,
	api **handler.Handler,
) error {
	srv := cfg.Server

	if srv.Line.Enabled {
		lineSrv := lineserver.New(&lineserver.Config{
			Addr:           srv.Line.Addr,
			ReadTimeout:    srv.ReadTimeout,
			WriteTimeout:   srv.WriteTimeout,
			IdleTimeout:    srv.IdleTimeout,
			RateLimit:      srv.RateLimit,
			RateBurst:      srv.RateBurst,
			MailboxSize:    cfg.PubSub.MailboxSize,
			MaxConnections: srv.MaxConnections,
		}, dispatcher, lineserver.WithLogger(log), lineserver.WithConnObserver(metrics))
		if err := lineSrv.Start(ctx); err != nil {
			return fmt.Errorf("start line server: %w", err)
		}
		sh.OnShutdown(lineSrv.Shutdown)
		listeners[lineserver.Protocol] = lineSrv
	}

	if srv.Redis.Enabled {
		redisSrv := redisserver.New(&redisserver.Config{
			Addr:           srv.Redis.Addr,
			ReadTimeout:    srv.ReadTimeout,
			WriteTimeout:   srv.WriteTimeout,
			IdleTimeout:    srv.IdleTimeout,
			RateLimit:      srv.RateLimit,
			RateBurst:      srv.RateBurst,
			MailboxSize:    cfg.PubSub.MailboxSize,
			MaxConnections: srv.MaxConnections,
		}, dispatcher, redisserver.WithLogger(log), redisserver.WithConnObserver(metrics))
		if err := redisSrv.Start(ctx); err != nil {
			return fmt.Errorf("start redis server: %w", err)
		}
		sh.OnShutdown(redisSrv.Shutdown)
		listeners[redisserver.Protocol] = redisSrv
	}

	if srv.HTTP.Enabled {
		h := handler.New(handler.Config{
			Stats:     dispatcher,
			Listeners: listeners,
			Logger:    log,
		})
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			API:     h,
			Metrics: metrics.Handler(),
			Logger:  log,
		})
		httpSrv := httpserver.New(srv.HTTP.Addr, router, log)
		if err := httpSrv.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		sh.OnShutdown(httpSrv.Shutdown)
		*api = h
	}
	return nil
}

// watchLogLevel re-reads the configuration when the file changes and
// applies a new log.level. Other settings need a restart. --debug pins the
// level.
func watchLogLevel(src configSource, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(src.file); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		if src.debug {
			return
		}
		cfg := config.Default()
		opts := []confloader.Option{confloader.WithConfigFile(path)}
		if src.envFile != "" {
			opts = append(opts, confloader.WithEnvFile(src.envFile))
		}
		if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		cfg = config.Sanitize(cfg)
		if !logger.ValidLevel(cfg.Log.Level) {
			log.Warn("config reload ignored invalid log level", "level", cfg.Log.Level)
			return
		}
		if old := logger.GetLevel(); old != cfg.Log.Level {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "from", old, "to", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
