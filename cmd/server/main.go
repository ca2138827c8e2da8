package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/internal/app"
	"github.com/charlesng35/sponsorpass/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sponsorpass-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadConfigPath(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	// Match GOMAXPROCS to the container CPU quota.
	undoMaxProcs, err := maxprocs.Set(maxprocs.Logger(log.Sugar().Infof))
	if err != nil {
		log.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	defer undoMaxProcs()

	client, err := newPartnershipsClient(cfg)
	if err != nil {
		return err
	}

	stack, err := bootstrapRuntime(ctx, cfg, client, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			err = fmt.Errorf("server error: %w", err)
		}
		return multierr.Append(err, stack.Shutdown(context.Background()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = stack.Shutdown(shutdownCtx)

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && !errors.Is(shutdownErr, http.ErrServerClosed) {
		err = multierr.Append(err, fmt.Errorf("graceful shutdown: %w", shutdownErr))
	}

	if serveErr, ok := <-serverErr; ok && serveErr != nil {
		err = multierr.Append(err, fmt.Errorf("server error: %w", serveErr))
	}

	if err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
