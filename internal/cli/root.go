package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/vietddude/oracle-updater/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "oracle-update",
	Short: "Bitcoin hashrate oracle updater",
	Long: `oracle-update computes the hashes-for-BTC index from a Bitcoin node and
pushes it to the on-chain hashrate oracle when the stored value differs.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (environment variables only when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// setup loads .env and configuration and builds the process logger.
// Nothing here touches the network.
func setup() (*config.AppConfig, *slog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, newLogger(os.Stderr, "info", "text", isDebug), err
	}

	log := newLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format, isDebug)
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

func newLogger(w io.Writer, level, format string, debug bool) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug", "trace":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error", "fatal":
		slogLevel = slog.LevelError
	}
	if debug {
		slogLevel = slog.LevelDebug
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	}))
}
