package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Textfile exports OTel instruments through a private Prometheus registry
// into a node-exporter textfile.
type Textfile struct {
	path     string
	registry *prometheus.Registry
	reader   *promexporter.Exporter
}

// NewTextfile creates an exporter writing to path. Each call uses its own
// registry.
func NewTextfile(path string) (*Textfile, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &Textfile{path: path, registry: registry, reader: exporter}, nil
}

// Reader returns the metric reader to attach to a MeterProvider.
func (t *Textfile) Reader() sdkmetric.Reader {
	return t.reader
}

// Gatherer exposes the registry, e.g. for tests.
func (t *Textfile) Gatherer() prometheus.Gatherer {
	return t.registry
}

// Write gathers the registry and atomically replaces the textfile.
func (t *Textfile) Write() error {
	if err := prometheus.WriteToTextfile(t.path, t.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", t.path, err)
	}

	return nil
}
