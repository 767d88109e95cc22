package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/oracle-updater/internal/control"
	"github.com/vietddude/oracle-updater/internal/core/worker"
	"github.com/vietddude/oracle-updater/internal/indexing/health"
)

var (
	servePort     int
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, metrics and on-demand runs over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides server.port)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "run the job on this interval (overrides server.interval)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveInterval != 0 {
		cfg.Server.Interval = serveInterval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := control.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize job", "error", err)
		return err
	}
	defer app.Close()

	server := health.NewServer(health.NewMonitor(3), func(ctx context.Context) (any, error) {
		return app.Job.Run(ctx)
	}, cfg.Server.Port, log)

	scheduler := worker.NewScheduler(cfg.Server.Interval, func(ctx context.Context) error {
		_, err := server.Run(ctx)
		return err
	}, log)
	go scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("Oracle updater serving", "port", cfg.Server.Port, "interval", cfg.Server.Interval)

	select {
	case <-ctx.Done():
		log.Info("Received signal, shutting down...")
	case err := <-errCh:
		log.Error("HTTP server failed", "error", err)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
		return err
	}
	return nil
}
