// Command gutcom builds personalized gut community models from organism
// networks and abundance profiles, and simulates them under a diet.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gutcom/internal/metrics"
)

var (
	verbose       bool
	metricsListen string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gutcom",
	Short: "Personalized gut community model pipeline",
	Long: `gutcom assembles one community-scale metabolic model per sample from
per-organism networks and a relative abundance table, then simulates each
model under a diet to profile net metabolite production and uptake.

The two phases run independently: 'build' persists sample model artifacts,
'simulate' consumes them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

// startMetrics wires a Prometheus registry and, when an address is set,
// serves /metrics in the background for the lifetime of the process.
func startMetrics() *metrics.Pipeline {
	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)
	if metricsListen == "" {
		return m
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	go func() {
		if err := http.ListenAndServe(metricsListen, mux); err != nil {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", metricsListen))
	return m
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "address to serve Prometheus metrics on (empty disables)")
	rootCmd.AddCommand(buildCmd, simulateCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
