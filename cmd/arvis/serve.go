package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/arvis"
	"github.com/aretw0/arvis/internal/cli"
	httpAdapter "github.com/aretw0/arvis/pkg/adapters/http"
	"github.com/aretw0/arvis/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts a launcher session behind a JSON API, with live views over server-sent events and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		watch, _ := cmd.Flags().GetBool("watch")

		cfg, err := loader.Load()
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.Log, debug)
		if err != nil {
			return err
		}
		opts, err := cli.LauncherOptions(cfg, logger, debug)
		if err != nil {
			return err
		}

		streams := httpAdapter.NewStreamManager()
		opts = append(opts,
			arvis.WithWatch(watch),
			arvis.WithSessionOptions(session.OnChange(streams.PublishView)),
		)
		l, err := arvis.New(opts...)
		if err != nil {
			return fmt.Errorf("error initializing arvis: %w", err)
		}
		defer l.Close()

		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: httpAdapter.NewHandler(l.Session(),
				httpAdapter.WithHistory(l.History()),
				httpAdapter.WithStreams(streams),
				httpAdapter.WithGatherer(l.Gatherer()),
				httpAdapter.WithLogger(logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting arvis server", "addr", srv.Addr, "extensions", len(l.Extensions()))
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Arvis server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default 127.0.0.1:8680)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload extensions when their manifests change")
}
