// Package observability sets up structured logging, OpenTelemetry tracing and
// metrics, and the Prometheus textfile export of counts2counts runs.
package observability

import (
	"io"
	"log/slog"
	"os"
)

// AppMode identifies how the binary was launched.
type AppMode string

// ModeCLI is the only execution mode.
const ModeCLI AppMode = "cli"

const (
	defaultServiceName        = "counts2counts"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string
	OTLPInsecure bool

	// SampleRatio below 1 samples root spans by trace id.
	SampleRatio float64

	// MetricsTextfile, when set, receives the run metrics in Prometheus text
	// format on shutdown.
	MetricsTextfile string

	LogLevel slog.Level
	LogJSON  bool
	// LogWriter defaults to stderr.
	LogWriter io.Writer

	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		SampleRatio:        1,
		LogLevel:           slog.LevelInfo,
		LogWriter:          os.Stderr,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
