package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meonghae/profile-service/internal/config"
	"github.com/meonghae/profile-service/server"
	"github.com/meonghae/profile-service/server/auth"
	authmem "github.com/meonghae/profile-service/server/auth/memory"
	authredis "github.com/meonghae/profile-service/server/auth/redis"
	"github.com/meonghae/profile-service/server/recurrence"
	"github.com/meonghae/profile-service/server/schedule"
	"github.com/meonghae/profile-service/server/storage"
	"github.com/meonghae/profile-service/server/storage/memory"
	"github.com/meonghae/profile-service/server/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

type flagConfig struct {
	configPath string
	listen     string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		slog.Error("failed to load config", "config_path", flags.configPath, "error", err)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: conf.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(conf, logger); err != nil {
		logger.Error("profiled exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("profiled exiting")
}

func run(conf *config.Config, logger *slog.Logger) error {
	loc, err := conf.Location()
	if err != nil {
		return err
	}

	logger.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"database", conf.Database,
		"redis", conf.Redis.URL != "",
		"recurrence_cache", conf.Recurrence.Cache.Enabled,
		"seed_users", len(conf.Users))

	store, closeStore, err := openStorage(conf, loc, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	engine := recurrence.NewEngineWithConfig(conf.EngineConfig(), recurrence.WithLogger(logger))
	defer engine.Close()

	svc := schedule.NewService(store, engine,
		schedule.WithLogger(logger),
		schedule.WithLocation(loc))

	users := authmem.New(authmem.WithLogger(logger))
	for _, u := range conf.Users {
		if err := users.AddUser(u.Email, u.Password, u.Roles); err != nil {
			return err
		}
	}

	tokens, err := auth.NewTokenProvider(conf.JWT.Secret, conf.JWT.AccessTokenTTL)
	if err != nil {
		return err
	}
	cache, closeCache, err := openTokenCache(conf, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	srv, err := server.New(server.Config{
		Service:        svc,
		Authenticator:  users,
		Tokens:         tokens,
		Resolver:       auth.NewCachedResolver(tokens, cache, conf.Redis.TokenTTL, auth.WithResolverLogger(logger)),
		AllowedOrigins: conf.CORSOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", conf.Listen, "base_path", server.DefaultBasePath)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStorage(conf *config.Config, loc *time.Location, logger *slog.Logger) (storage.Storage, func(), error) {
	if conf.Database == "" {
		logger.Warn("no database configured, schedules are kept in memory")
		return memory.New(), func() {}, nil
	}
	store, err := sqlite.Open(conf.Database, sqlite.WithLogger(logger), sqlite.WithLocation(loc))
	if err != nil {
		return nil, nil, err
	}
	return store, func() { closeQuietly(store, "database", logger) }, nil
}

func openTokenCache(conf *config.Config, logger *slog.Logger) (auth.TokenCache, func(), error) {
	if conf.Redis.URL == "" {
		return authmem.NewTokenCache(), func() {}, nil
	}
	cache, err := authredis.New(conf.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("token cache backed by redis")
	return cache, func() { closeQuietly(cache, "redis", logger) }, nil
}

func closeQuietly(c io.Closer, what string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", "resource", what, "error", err)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/profiled/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")

	flag.Parse()

	return cfg
}
