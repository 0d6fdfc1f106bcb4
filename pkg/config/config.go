// Package config loads counts2counts settings from defaults, an optional
// YAML file, COUNTS2COUNTS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tbrown91/cgat/pkg/counts"
	"github.com/tbrown91/cgat/pkg/spike"
	"github.com/tbrown91/cgat/pkg/table"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidNormalization = errors.New("invalid normalization method")
	ErrInvalidFilter        = errors.New("invalid filter settings")
	ErrInvalidSpike         = errors.New("invalid spike settings")
)

// Config is the full counts2counts configuration.
type Config struct {
	IO        IOConfig             `mapstructure:"io"`
	Spike     SpikeConfig          `mapstructure:"spike"`
	Filter    counts.FilterOptions `mapstructure:"filter"`
	Normalize NormalizeConfig      `mapstructure:"normalize"`
	Report    ReportConfig         `mapstructure:"report"`
	Logging   LoggingConfig        `mapstructure:"logging"`
	Telemetry TelemetryConfig      `mapstructure:"telemetry"`
}

// IOConfig names the input, output and design files. "-" is a standard stream.
type IOConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	Design string `mapstructure:"design"`
	// Strict fails on non-numeric sample cells instead of skipping the row.
	Strict bool `mapstructure:"strict"`
}

// BinConfig is one min/max/width triple.
type BinConfig struct {
	Min   float64 `mapstructure:"min"`
	Max   float64 `mapstructure:"max"`
	Width float64 `mapstructure:"width"`
}

// SubclusterConfig bounds the subcluster sizes drawn in cluster mode.
type SubclusterConfig struct {
	MinSize  int `mapstructure:"min_size"`
	MaxSize  int `mapstructure:"max_size"`
	BinWidth int `mapstructure:"bin_width"`
}

// ClusterConfig controls cluster discovery.
type ClusterConfig struct {
	MaximumDistance float64 `mapstructure:"maximum_distance"`
	MinimumSize     int     `mapstructure:"minimum_size"`
}

// SpikeConfig holds the settings of the spike command.
type SpikeConfig struct {
	Type             string           `mapstructure:"type"`
	DifferenceMethod string           `mapstructure:"difference_method"`
	Initial          BinConfig        `mapstructure:"initial"`
	Change           BinConfig        `mapstructure:"change"`
	Subcluster       SubclusterConfig `mapstructure:"subcluster"`
	Cluster          ClusterConfig    `mapstructure:"cluster"`
	Minimum          int              `mapstructure:"minimum"`
	Maximum          int              `mapstructure:"maximum"`
	Iterations       int              `mapstructure:"iterations"`
	OutputMethod     string           `mapstructure:"output_method"`
	IDColumns        []string         `mapstructure:"id_columns"`
	ShuffleSuffix    string           `mapstructure:"shuffle_suffix"`
	KeepSuffixes     []string         `mapstructure:"keep_suffixes"`
	// Seed of zero draws a fresh seed per run.
	Seed    uint64 `mapstructure:"seed"`
	Workers int    `mapstructure:"workers"`
}

// NormalizeConfig holds the settings of the normalize command.
type NormalizeConfig struct {
	Method string `mapstructure:"method"`
}

// ReportConfig names the optional run report and heat map files.
type ReportConfig struct {
	Path string `mapstructure:"path"`
	Plot string `mapstructure:"plot"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig enables trace and metric export.
type TelemetryConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	if _, err := counts.ParseMethod(c.Normalize.Method); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNormalization, err)
	}

	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	if _, err := c.SpikeOptions(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpike, err)
	}

	return nil
}

// SlogLevel parses the configured level name.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// NumericPolicy returns the numeric conversion policy of the input table.
func (c IOConfig) NumericPolicy() table.NumericPolicy {
	if c.Strict {
		return table.StrictNumericConversion
	}

	return table.SkipOnNumericError
}

// SpikeOptions converts the spike section into validated generator options.
func (c *Config) SpikeOptions() (spike.Options, error) {
	s := c.Spike

	mode, err := spike.ParseMode(s.Type)
	if err != nil {
		return spike.Options{}, err
	}

	method, err := spike.ParseDifferenceMethod(s.DifferenceMethod)
	if err != nil {
		return spike.Options{}, err
	}

	output, err := spike.ParseOutputMethod(s.OutputMethod)
	if err != nil {
		return spike.Options{}, err
	}

	opts := spike.Options{
		Mode:       mode,
		Difference: method,
		Initial:    spike.Range(s.Initial),
		Change:     spike.Range(s.Change),
		Subcluster: spike.SizeRange{
			Min:   s.Subcluster.MinSize,
			Max:   s.Subcluster.MaxSize,
			Width: s.Subcluster.BinWidth,
		},
		MinSpike:           s.Minimum,
		MaxSpike:           s.Maximum,
		Iterations:         s.Iterations,
		Output:             output,
		IDColumns:          s.IDColumns,
		ClusterMaxDistance: s.Cluster.MaximumDistance,
		ClusterMinSize:     s.Cluster.MinimumSize,
		Workers:            s.Workers,
		Policy:             c.IO.NumericPolicy(),
	}

	if err := opts.Validate(); err != nil {
		return spike.Options{}, err
	}

	return opts, nil
}

// Suffixes returns the column suffixes of suffixed input tables.
func (s SpikeConfig) Suffixes() spike.Suffixes {
	return spike.Suffixes{Shuffle: s.ShuffleSuffix, Keep: s.KeepSuffixes}
}
