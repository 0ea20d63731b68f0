package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"busreg-server-go/config"
	"busreg-server-go/db"
	"busreg-server-go/handlers"
	"busreg-server-go/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registration HTTP API",
	RunE:  runServe,
}

func init() {
	defaults := config.Defaults()

	serveCmd.Flags().String("addr", defaults.Server.Addr, "listen address")
	serveCmd.Flags().String("store", defaults.Storage.Backend, "storage backend: redis or sqlite")
	serveCmd.Flags().Bool("seed", defaults.Server.Seed, "add starter bus stops when the directory is empty")
	serveCmd.Flags().Bool("dev", defaults.Log.Dev, "human readable logs and gin debug mode")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("error closing store", zap.Error(err))
		}
	}()

	if cfg.Server.Seed {
		if _, err := db.SeedIfEmpty(ctx, store, log); err != nil {
			log.Warn("skipping seed", zap.Error(err))
		}
	}

	if !cfg.Log.Dev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.NewAPIHandler(store, log, cfg.Autocomplete.Limit), log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.Addr), zap.String("store", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
