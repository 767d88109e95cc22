package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"github.com/vietddude/oracle-updater/internal/control"
	"github.com/vietddude/oracle-updater/internal/core/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the oracle update job once",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := control.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize job", "error", err)
		return err
	}
	defer app.Close()

	_, runErr := app.Job.Run(ctx)
	pushMetrics(cfg.Metrics, log)
	return runErr
}

// pushMetrics sends this process's metrics to the Pushgateway. Failures are logged only.
func pushMetrics(cfg config.MetricsConfig, log *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hostname, _ := os.Hostname()
	err := push.New(cfg.PushgatewayURL, cfg.JobName).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", hostname).
		PushContext(ctx)
	if err != nil {
		log.Warn("Failed to push metrics", "error", err, "url", cfg.PushgatewayURL)
		return
	}
	log.Debug("Metrics pushed", "url", cfg.PushgatewayURL)
}
