package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".counts2counts"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix.
const envPrefix = "COUNTS2COUNTS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"input":           "io.input",
	"output":          "io.output",
	"design-tsv-file": "io.design",
	"strict":          "io.strict",

	"spike-type":                     "spike.type",
	"spike-difference-method":        "spike.difference_method",
	"spike-initial-bin-min":          "spike.initial.min",
	"spike-initial-bin-max":          "spike.initial.max",
	"spike-initial-bin-width":        "spike.initial.width",
	"spike-change-bin-min":           "spike.change.min",
	"spike-change-bin-max":           "spike.change.max",
	"spike-change-bin-width":         "spike.change.width",
	"spike-subcluster-min-size":      "spike.subcluster.min_size",
	"spike-subcluster-max-size":      "spike.subcluster.max_size",
	"spike-subcluster-bin-width":     "spike.subcluster.bin_width",
	"spike-minimum":                  "spike.minimum",
	"spike-maximum":                  "spike.maximum",
	"spike-iterations":               "spike.iterations",
	"spike-output-method":            "spike.output_method",
	"spike-id-columns":               "spike.id_columns",
	"spike-cluster-maximum-distance": "spike.cluster.maximum_distance",
	"spike-cluster-minimum-size":     "spike.cluster.minimum_size",
	"spike-shuffle-column-suffix":    "spike.shuffle_suffix",
	"spike-keep-column-suffix":       "spike.keep_suffixes",
	"seed":                           "spike.seed",
	"workers":                        "spike.workers",

	"filter-min-counts-per-row":    "filter.min_counts_per_row",
	"filter-min-counts-per-sample": "filter.min_counts_per_sample",
	"filter-percentile-rowsums":    "filter.percentile_rowsums",

	"normalization-method": "normalize.method",

	"report": "report.path",
	"plot":   "report.plot",

	"log-level": "logging.level",
	"log-json":  "logging.json",

	"otlp-endpoint":    "telemetry.otlp_endpoint",
	"otlp-insecure":    "telemetry.otlp_insecure",
	"metrics-textfile": "telemetry.metrics_textfile",
}

// LoadConfig loads configuration from defaults, the config file, env vars
// and flags, in increasing precedence. If configPath is non-empty it is used
// as the explicit config file; otherwise the file is searched in CWD and
// $HOME and a missing file is not an error. Flags in FlagKeys are bound when
// present in flags, which may be nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	if err := bindFlags(viperCfg, flags); err != nil {
		return nil, err
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func bindFlags(viperCfg *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}

	for name, key := range FlagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}

		if err := viperCfg.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("io.input", DefaultInput)
	viperCfg.SetDefault("io.output", DefaultOutput)
	viperCfg.SetDefault("io.design", "")
	viperCfg.SetDefault("io.strict", false)

	viperCfg.SetDefault("spike.type", DefaultSpikeType)
	viperCfg.SetDefault("spike.difference_method", DefaultSpikeDifferenceMethod)
	viperCfg.SetDefault("spike.initial.min", DefaultSpikeBinMin)
	viperCfg.SetDefault("spike.initial.max", DefaultSpikeBinMax)
	viperCfg.SetDefault("spike.initial.width", DefaultSpikeBinWidth)
	viperCfg.SetDefault("spike.change.min", DefaultSpikeBinMin)
	viperCfg.SetDefault("spike.change.max", DefaultSpikeBinMax)
	viperCfg.SetDefault("spike.change.width", DefaultSpikeBinWidth)
	viperCfg.SetDefault("spike.subcluster.min_size", DefaultSubclusterMinSize)
	viperCfg.SetDefault("spike.subcluster.max_size", DefaultSubclusterMaxSize)
	viperCfg.SetDefault("spike.subcluster.bin_width", DefaultSubclusterBinWidth)
	viperCfg.SetDefault("spike.cluster.maximum_distance", DefaultClusterMaxDistance)
	viperCfg.SetDefault("spike.cluster.minimum_size", DefaultClusterMinSize)
	viperCfg.SetDefault("spike.minimum", DefaultSpikeMinimum)
	viperCfg.SetDefault("spike.maximum", DefaultSpikeMaximum)
	viperCfg.SetDefault("spike.iterations", DefaultSpikeIterations)
	viperCfg.SetDefault("spike.output_method", DefaultSpikeOutputMethod)
	viperCfg.SetDefault("spike.id_columns", []string{})
	viperCfg.SetDefault("spike.shuffle_suffix", "")
	viperCfg.SetDefault("spike.keep_suffixes", []string{})
	viperCfg.SetDefault("spike.seed", 0)
	viperCfg.SetDefault("spike.workers", DefaultSpikeWorkers)

	viperCfg.SetDefault("filter.min_counts_per_row", DefaultFilterMinCountsPerRow)
	viperCfg.SetDefault("filter.min_counts_per_sample", DefaultFilterMinCountsPerSample)
	viperCfg.SetDefault("filter.percentile_rowsums", DefaultFilterPercentileRowSums)

	viperCfg.SetDefault("normalize.method", DefaultNormalizationMethod)

	viperCfg.SetDefault("report.path", "")
	viperCfg.SetDefault("report.plot", "")

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_textfile", "")
}
