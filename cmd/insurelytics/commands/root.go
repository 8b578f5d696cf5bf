package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"insurelytics/internal/config"
	"insurelytics/internal/ingest"
	"insurelytics/internal/logging"
	"insurelytics/internal/mcp"
	"insurelytics/internal/metrics"
	"insurelytics/internal/reference"
	"insurelytics/internal/selection"
	"insurelytics/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	registry  *prometheus.Registry
	dashboard *ingest.Dashboard
)

var rootCmd = &cobra.Command{
	Use:   "insurelytics",
	Short: "Insurelytics serves insurance jurisdiction analytics over MCP",
	Long: `Ingests a jurisdiction export workbook (.xlsx or .xls), normalizes it against the
reference tables, aggregates portfolio KPIs and buckets a six-year rollout timeline.
The analytics and the map selection are exposed as MCP tools over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		logging.Init(verbose, cfg.LogDir)

		registry = metrics.NewRegistry()
		dashboard, err = newDashboard(cfg, registry)
		if err != nil {
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("logDir", cfg.LogDir).
			Msg("Insurelytics starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		defer startTracing(ctx)()

		if cfg.MetricsAddr != "" {
			ln, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}
			go func() {
				if err := metrics.Serve(ctx, ln, registry); err != nil {
					log.Error().Err(err).Msg("Metrics listener stopped")
				}
			}()
		}

		server := mcp.NewServer(cfg, dashboard, registry, Version)
		return server.Run(ctx)
	},
}

// startTracing installs the OTLP tracer provider when configured and returns
// the flush to defer. A broken exporter setup only disables tracing.
func startTracing(ctx context.Context) func() {
	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "insurelytics",
		Version:     Version,
		Endpoint:    cfg.OTelEndpoint,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Tracing setup failed, continuing without traces")
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}
}

func newDashboard(cfg *config.AppConfig, reg prometheus.Registerer) (*ingest.Dashboard, error) {
	// 1. Reference tables: embedded unless overridden
	tables, err := reference.Default()
	if cfg.ReferenceDir != "" {
		tables, err = reference.LoadDir(cfg.ReferenceDir)
	}
	if err != nil {
		return nil, fmt.Errorf("reference tables: %w", err)
	}

	// 2. Pipeline and snapshot store share one set of collectors
	m := metrics.New(reg)
	pipeline := ingest.NewPipeline(tables, m)
	pipeline.MaxUploadBytes = cfg.MaxUploadBytes

	// 3. Selection machine on the wall clock
	machine := selection.NewMachine(selection.Config{
		FrameInterval: cfg.HoverFrameInterval,
		LeaveDelay:    cfg.LeaveClearDelay,
	})

	return ingest.NewDashboard(pipeline, ingest.NewStore(m), machine, m), nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(ingestCmd)
}
