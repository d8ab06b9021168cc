package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/tendant/simple-cms/pkg/simplecms/api"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file read before the environment")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(*envFile))
	if err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server error", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.ServerConfig, logger *slog.Logger) error {
	ctx := context.Background()

	components, err := cfg.Build(ctx, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if err := cfg.BootstrapAdmin(ctx, components); err != nil {
		return err
	}

	routerConfig, err := cfg.RouterConfig(components)
	if err != nil {
		return err
	}
	requestLogger := httplog.NewLogger(cfg.AppName, httplog.Options{
		JSON:     cfg.IsProduction(),
		LogLevel: slog.LevelInfo,
		Concise:  true,
	})
	routerConfig.Middlewares = append(routerConfig.Middlewares, httplog.RequestLogger(requestLogger))

	router, err := api.NewRouter(routerConfig)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "app", cfg.AppName, "version", cfg.AppVersion, "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exiting")
	return nil
}
