package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fernleaf/nursery/internal/handlers"
	"github.com/fernleaf/nursery/internal/notify"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin console API",
		Long: `Starts the admin console API on the specified port.

Image previews are served under /previews/ while they are staged, and
notifications can be followed as server-sent events on
/api/notifications/stream.`,
		Example: `  # Start server on default port 8888
  nursery serve

  # Start server on custom port with a config file
  nursery serve --port 3000 --config nursery.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port != "" {
				cfg.Port = port
			}

			notifications := notify.NewStore(notify.WithTTL(cfg.Notifications.TTL))
			defer notifications.Close()

			handler := handlers.New(cfg, opts.client(), notifications)
			defer handler.Close()

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			server.RegisterOnShutdown(handler.StopStreams)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Nursery console available", "addr", addr, "url", "http://localhost"+addr, "backend", cfg.BackendURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config, 8888)")

	return cmd
}
