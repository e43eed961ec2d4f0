package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/cli/config"
	httpctrl "github.com/verdant-lab/pythia/pkg/controller/http"
	"github.com/verdant-lab/pythia/pkg/service/worker"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var (
		addr            string
		adminKey        string
		refreshInterval time.Duration
		watchKB         bool
		engineCfg       engineConfig
		sentryCfg       config.Sentry
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP listen address",
			Category:    "Server",
			Sources:     cli.EnvVars("PYTHIA_ADDR"),
			Value:       ":8080",
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "admin-key",
			Usage:       "API key required by the admin endpoints",
			Category:    "Server",
			Sources:     cli.EnvVars("PYTHIA_ADMIN_KEY"),
			Destination: &adminKey,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Interval between corpus refreshes (0 disables the periodic refresh)",
			Category:    "Server",
			Sources:     cli.EnvVars("PYTHIA_REFRESH_INTERVAL"),
			Value:       time.Hour,
			Destination: &refreshInterval,
		},
		&cli.BoolFlag{
			Name:        "watch-kb",
			Usage:       "Watch the knowledge base directory and refresh when files change",
			Category:    "Server",
			Sources:     cli.EnvVars("PYTHIA_WATCH_KB"),
			Destination: &watchKB,
		},
	}
	flags = append(flags, engineCfg.flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the chat API server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			sentryCloser, err := sentryCfg.Configure(c.Root().Version)
			if err != nil {
				return err
			}
			defer sentryCloser()

			eng, err := buildEngine(ctx, &engineCfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			ctrlOpts := []httpctrl.Options{httpctrl.WithProfile(eng.profile)}
			if adminKey != "" {
				ctrlOpts = append(ctrlOpts, httpctrl.WithAdminKey(adminKey))
				logger.Info("Admin API enabled")
			} else {
				logger.Info("Admin key not configured, admin API disabled")
			}

			handler, err := httpctrl.New(eng.uc, ctrlOpts...)
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			var refresher *worker.RefreshWorker
			if engineCfg.sources.IsConfigured() && (refreshInterval > 0 || (watchKB && engineCfg.sources.KBDir() != "")) {
				opts := []worker.Option{}
				if watchKB && engineCfg.sources.KBDir() != "" {
					opts = append(opts, worker.WithWatchDir(engineCfg.sources.KBDir()))
				}
				refresher = worker.NewRefreshWorker(func(ctx context.Context) error {
					_, err := eng.uc.Ingest(ctx, true)
					return err
				}, refreshInterval, opts...)
				if err := refresher.Start(ctx); err != nil {
					return err
				}
				logger.Info("Corpus refresh worker started",
					"interval", refreshInterval.String(),
					"watch", watchKB,
				)
			} else {
				logger.Info("No corpus sources configured, refresh worker disabled")
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Info("Received signal, shutting down", "signal", sig.String())
			case err := <-errCh:
				logger.Error("Server error", "error", err.Error())
				return err
			}

			if refresher != nil {
				refresher.Stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown server gracefully", "error", err.Error())
				return err
			}

			logger.Info("Server shutdown completed")
			return nil
		},
	}
}
