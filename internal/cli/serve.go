package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bodega/internal/api"
	"github.com/mesh-intelligence/bodega/internal/logging"
	"github.com/mesh-intelligence/bodega/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API until SIGINT or SIGTERM. Clients log in with
POST /api/auth/login and send the returned token as a bearer token.
Prometheus metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.loadWorkspace(cmd)
			if err != nil {
				return err
			}
			if w.settings.Auth.PasswordHash == "" || w.settings.Auth.JWTSecret == "" {
				return errNotInitialized
			}
			if addr == "" {
				addr = w.settings.Serve.Addr
			}

			cleanup, err := logging.Setup(w.settings.Log.Level, w.settings.Log.File)
			if err != nil {
				return sysError(err)
			}
			defer cleanup()
			w.logger = slog.Default()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, w, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: serve.addr from config)")
	return cmd
}

// serve runs the API on addr until ctx is done, then closes the shared
// session and the store.
func serve(ctx context.Context, w *workspace, addr string) (err error) {
	if err := w.openStore(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := w.close(context.Background()); err == nil {
			err = cerr
		}
	}()

	apiServer, err := api.NewServer(api.Config{
		Store:        w.store,
		PasswordHash: w.settings.Auth.PasswordHash,
		JWTSecret:    w.settings.Auth.JWTSecret,
		Logger:       w.logger,
		Metrics:      metrics.New(),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		w.logger.Info("server started", "addr", addr, "backend", w.settings.Backend)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return sysError(fmt.Errorf("serve: %w", err))
		}
		return nil
	case <-ctx.Done():
	}

	w.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		w.logger.Error("server forced to shutdown", "error", err)
	}
	if err := apiServer.Close(shutdownCtx); err != nil {
		w.logger.Error("closing session", "error", err)
		return err
	}
	w.logger.Info("server stopped")
	return nil
}
