package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ideamans/sheetboard/api"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var (
		layout string
		addr   string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the entity API over HTTP",
		Long: `Serve the entity API over HTTP.

Layouts:
  server     all entities and /health on one router
  functions  every entity as its own handler, as separate functions
             would be deployed

Examples:
  sheetboard serve
  sheetboard serve --addr :8080 --prefix /api
  sheetboard serve --layout functions`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				a.config.Addr = addr
			}
			if cmd.Flags().Changed("prefix") {
				a.config.APIPrefix = prefix
			}

			handler, err := a.httpHandler(layout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, handler)
		},
	}

	cmd.Flags().StringVar(&layout, "layout", "server", "deployment layout: server or functions")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "API path prefix (overrides config)")

	return cmd
}

func (a *app) httpHandler(layout string) (http.Handler, error) {
	handlers := a.handlers()
	opts := api.Options{
		Prefix:   a.config.APIPrefix,
		Logger:   a.logger,
		Degraded: a.gateway.Degraded(),
	}

	switch layout {
	case "server":
		return api.NewRouter(handlers, opts), nil
	case "functions":
		mux := http.NewServeMux()
		for _, h := range handlers {
			p := api.EntityPath(a.config.APIPrefix, h.Entity().Name)
			fn := api.Function(a.config.APIPrefix, h)
			mux.Handle(p, fn)
			mux.Handle(p+"/", fn)
		}
		mux.Handle(api.EntityPath(a.config.APIPrefix, "health"), api.NewRouter(nil, opts))
		return mux, nil
	default:
		return nil, fmt.Errorf("unknown layout %q", layout)
	}
}

// serve runs the HTTP server until ctx is cancelled, then shuts down gracefully
func (a *app) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr, "prefix", a.config.APIPrefix,
			"degraded", a.gateway.Degraded())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
