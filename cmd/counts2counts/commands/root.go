// Package commands implements the counts2counts subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tbrown91/cgat/pkg/config"
	"github.com/tbrown91/cgat/pkg/observability"
	"github.com/tbrown91/cgat/pkg/table"
	"github.com/tbrown91/cgat/pkg/version"
)

type observabilityInit func(ctx context.Context, cfg observability.Config) (observability.Providers, error)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	initObs    observabilityInit
}

// NewRootCommand creates the counts2counts command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(observability.Init)
}

func newRootCommand(initObs observabilityInit) *cobra.Command {
	a := &app{initObs: initObs}

	root := &cobra.Command{
		Use:   "counts2counts",
		Short: "Filter, normalize and spike count tables",
		Long: `counts2counts transforms tab-separated count tables.

Commands:
  spike      Generate synthetic spike-in rows with known changes
  filter     Drop low-count rows and samples
  normalize  Scale samples by size factors or per-million totals`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: .counts2counts.yaml in CWD or $HOME)")
	flags.StringP("input", "I", config.DefaultInput, "Input table; '-' for stdin, .gz/.zst/.lz4 are decompressed")
	flags.StringP("output", "S", config.DefaultOutput, "Output table; '-' for stdout, .gz/.zst/.lz4 are compressed")
	flags.StringP("design-tsv-file", "d", "", "Design table with track, include, group and pair columns")
	flags.Bool("strict", false, "Fail on non-numeric sample values instead of skipping the row")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	flags.Bool("log-json", config.DefaultLogJSON, "Log in JSON")
	flags.String("otlp-endpoint", "", "OTLP gRPC collector for traces and metrics")
	flags.Bool("otlp-insecure", false, "Disable TLS to the OTLP collector")
	flags.String("metrics-textfile", "", "Write run metrics in Prometheus text format to this file")

	root.AddCommand(a.spikeCommand(), a.filterCommand(), a.normalizeCommand(), versionCommand())

	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "counts2counts %s\n", version.String())
		},
	}
}

// session is one command invocation with loaded configuration and telemetry.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
}

func (a *app) start(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(a.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogWriter = cmd.ErrOrStderr()
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile

	providers, err := a.initObs(cmd.Context(), obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger.With("command", cmd.Name()),
	}, nil
}

// finish flushes telemetry and joins its error with the command's.
func (s *session) finish(ctx context.Context, runErr error) error {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	return errors.Join(runErr, s.providers.Shutdown(ctx))
}

func (s *session) readTable(cmd *cobra.Command) (*table.Table, error) {
	path := s.cfg.IO.Input
	if path == "" || path == table.StdStream {
		return table.Read(cmd.InOrStdin())
	}

	return table.ReadFile(path)
}

func (s *session) writeTable(cmd *cobra.Command, t *table.Table) error {
	path := s.cfg.IO.Output
	if path == "" || path == table.StdStream {
		return table.Write(cmd.OutOrStdout(), t)
	}

	return table.WriteFile(path, t)
}
