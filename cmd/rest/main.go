package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memex-be/internal/bootstrap"
	"memex-be/internal/config"
	"memex-be/internal/pkg/logger"
	"memex-be/internal/server"
	"memex-be/internal/tracer"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration (env first, flags override)
	cfg := config.Load()

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "memex",
		Short:         "Natural language search and chat over your notes, music, ledger and images",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.App.ConfigFile, "config-file", "c", cfg.App.ConfigFile, "YAML file with the content types to index")
	flags.BoolVar(&cfg.App.Regenerate, "regenerate", cfg.App.Regenerate, "rebuild every configured index at startup")
	flags.BoolVarP(&cfg.App.Verbose, "verbose", "v", cfg.App.Verbose, "log debug output to the console")
	flags.StringVar(&cfg.App.Host, "host", cfg.App.Host, "host to listen on")
	flags.StringVar(&cfg.App.Port, "port", cfg.App.Port, "port to listen on")
	flags.StringVar(&cfg.App.Socket, "socket", cfg.App.Socket, "unix socket to listen on instead of host:port")

	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction(), cfg.App.Verbose)
	defer func() { _ = sysLogger.Sync() }()

	// 2. Content-type configuration
	searchFile, err := config.LoadSearchFile(cfg.App.ConfigFile)
	if err != nil {
		sysLogger.Error("BOOTSTRAP", "Failed to load config file", map[string]interface{}{"error": err.Error()})
		return err
	}
	cfg.Search = searchFile

	// 3. Tracer
	shutdownTracer := tracer.InitTracer(sysLogger)
	defer func() { _ = shutdownTracer(context.Background()) }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg, sysLogger)
	if err != nil {
		sysLogger.Error("BOOTSTRAP", "Failed to initialize", map[string]interface{}{"error": err.Error()})
		return err
	}
	defer container.Close()

	// 5. Start Background Services
	if err := container.AuditService.Consume(ctx); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Audit consumer not started", map[string]interface{}{"error": err.Error()})
	}

	// 6. Run Server until a signal arrives or the listener fails
	srv := server.New(cfg, container)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		sysLogger.Info("SERVER", "Shutdown signal received", nil)
	case runErr = <-serveErr:
		if runErr != nil {
			sysLogger.Error("SERVER", "Server stopped", map[string]interface{}{"error": runErr.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sysLogger.Warn("SERVER", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	// 7. Persist the conversation. In-flight turns have drained by now.
	if err := container.SessionService.Finalize(context.Background()); err != nil {
		return errors.Join(runErr, fmt.Errorf("persist conversation: %w", err))
	}

	return runErr
}
