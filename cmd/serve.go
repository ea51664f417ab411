package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nlquery/internal/api"
	"github.com/JonMunkholm/nlquery/internal/config"
	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/observability"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr  string
	serveDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `The serve command starts the JSON API on ADDR (default :5000).

When DATABASE_URL is set the service connects to it at startup; clients can
also connect later through POST /api/connect.`,
	RunE: runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides ADDR)")
		c.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFromEnv(serviceName)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Address = serveAddr
	}
	if serveDebug {
		cfg.Debug = true
		cfg.Observability.LogLevel = slog.LevelDebug
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	gateway := newGateway(cfg, logger)
	defer func() {
		if err := gateway.Close(); err != nil {
			logger.Warn("closing database failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.URL != "" {
		if err := connectWithTimeout(ctx, gateway, cfg.Database.URL); err != nil {
			logger.Warn("startup database connection failed",
				slog.String("error", dsn.Mask(err.Error())),
			)
		}
		observability.SetDatabaseConnected(gateway.Connected())
	}

	deps := api.Dependencies{Logger: logger, Gateway: gateway}
	if synth := newSynthesizer(cfg, logger); synth != nil {
		deps.Synthesizer = synth
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewHandler(cfg, deps),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTP.Address), slog.Bool("debug", cfg.Debug))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
