package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apphttp "brewtrack/internal/http"
	"brewtrack/internal/log"
	"brewtrack/internal/middleware/ratelimit"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = app.Config.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gw, suggestions, err := app.gateway(ctx)
			if err != nil {
				return err
			}

			// Toasts raised by the initial load are shown on the first page view.
			mount := notify.NewQueue()
			tr, err := app.newTracker(gw, mount)
			if err != nil {
				return err
			}
			if err := tr.Load(ctx); err != nil {
				app.Logger.Warn("Initial load incomplete", log.FieldError, err)
			}

			var pinger store.Pinger
			if p, ok := gw.(store.Pinger); ok {
				pinger = p
			}
			rl := ratelimit.DefaultConfig()
			rl.RequestsPerMinute = app.Config.RateLimitPerMinute

			srv := apphttp.NewServer(":"+port, tr, apphttp.Options{
				Logger:         app.Logger,
				Suggestions:    suggestions,
				Pinger:         pinger,
				Mount:          mount,
				RateLimit:      rl,
				DevProxyPrefix: app.Config.DevProxyPrefix,
				DevProxyTarget: app.Config.DevProxyTarget,
			})

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Starting brewtrack server", "port", port, "backend", app.backendName(), "status_sync", tr.Tasks.Policy())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					app.Logger.Error("Server error", log.FieldError, err, "port", port)
					return err
				}
				return nil
			case <-ctx.Done():
				app.Logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Error("Server shutdown error", log.FieldError, err)
				return err
			}
			app.Logger.Info("Server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides PORT)")

	return cmd
}

func (a *App) backendName() string {
	if a.backendFlag != "" {
		return a.backendFlag
	}
	return a.Config.DataBackend
}
