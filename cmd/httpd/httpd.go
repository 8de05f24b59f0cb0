// Package httpd implements the read-only audit API server command.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/webwatch/cmd/common"
	"github.com/jonesrussell/webwatch/internal/api"
)

// Command returns the httpd command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the read-only audit API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *cfgFile)
		},
	}
}

func run(parent context.Context, cfgFile string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := common.New(ctx, cfgFile, false)
	if err != nil {
		return err
	}
	defer deps.Close()

	log := deps.Logger
	cfg := deps.Config

	store := api.NewStore(deps.CrawlLogs, deps.Hits, deps.NotificationLogs)
	router := api.NewRouter(store, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("audit API listening", "address", cfg.Server.Address)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case serveErr := <-errChan:
		return fmt.Errorf("server failed: %w", serveErr)
	case <-ctx.Done():
	}

	log.Info("shutting down audit API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("failed to shut down server: %w", shutdownErr)
	}
	return nil
}
