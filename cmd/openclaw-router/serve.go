package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/router"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/session"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/timeout"
	v1 "github.com/CoworkedShawn/openclaw-skills/server/router/api/v1"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routing HTTP API",
		Long: `Start the HTTP front-end exposing POST /api/v1/route and friends.

The catalog file is reloaded on change when --watch is set, and idle user
sessions are evicted in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("mode", "", "server mode (dev, prod)")
	flags.String("addr", "", "address to bind")
	flags.Int("port", 0, "port to bind")
	flags.Bool("watch", false, "reload the catalog file when it changes")
	flags.Float64("rate-limit", 0, "per-user requests per second (0 disables limiting)")

	_ = opts.v.BindPFlag("mode", flags.Lookup("mode"))
	_ = opts.v.BindPFlag("addr", flags.Lookup("addr"))
	_ = opts.v.BindPFlag("port", flags.Lookup("port"))
	_ = opts.v.BindPFlag("watch_catalog", flags.Lookup("watch"))
	_ = opts.v.BindPFlag("rate_limit", flags.Lookup("rate-limit"))
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	a, err := opts.newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cleanup := session.NewSessionCleanupJob(a.sessions, session.CleanupConfig{
		MaxIdle: a.profile.SessionIdleTimeout,
	})
	if err := cleanup.Start(ctx); err != nil {
		return err
	}
	defer cleanup.Stop()

	if a.profile.WatchCatalog {
		if a.profile.CatalogPath == "" {
			a.logger.Warn("catalog watch requested without a catalog file; ignoring")
		} else {
			watcher, err := router.NewConfigWatcher(a.config, 0)
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()
		}
	}

	api := v1.NewAPIV1Service(a.profile, a.service, a.logger)
	echoServer := api.NewEchoServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("routing API listening",
			"addr", a.profile.ListenAddr(),
			"mode", a.profile.Mode,
			"version", a.profile.Version)
		if err := echoServer.Start(a.profile.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "routing API stopped")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down routing API")
		return echoServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
