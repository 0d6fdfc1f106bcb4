// Package report summarizes spike runs for people and machines: a bin table
// on the terminal, a YAML or JSON run report and an HTML heat map.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbrown91/cgat/pkg/spike"
)

// BinReport describes one populated bin by its lower edges.
type BinReport struct {
	InitialLow float64  `json:"initial_low"        yaml:"initial_low"`
	ChangeLow  float64  `json:"change_low"         yaml:"change_low"`
	SizeLow    *float64 `json:"size_low,omitempty" yaml:"size_low,omitempty"`
	Spikes     int      `json:"spikes"             yaml:"spikes"`
	Written    bool     `json:"written"            yaml:"written"`
}

// RunReport is the machine-readable record of a run.
type RunReport struct {
	Version    string        `json:"version"    yaml:"version"`
	Seed       uint64        `json:"seed"       yaml:"seed"`
	Mode       string        `json:"mode"       yaml:"mode"`
	Difference string        `json:"difference" yaml:"difference"`
	Initial    string        `json:"initial"    yaml:"initial"`
	Change     string        `json:"change"     yaml:"change"`
	MinSpike   int           `json:"min_spike"  yaml:"min_spike"`
	MaxSpike   int           `json:"max_spike"  yaml:"max_spike"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Clusters   int           `json:"clusters"   yaml:"clusters"`
	Evaluated  int           `json:"evaluated"  yaml:"evaluated"`
	Accepted   int           `json:"accepted"   yaml:"accepted"`
	Rejected   int           `json:"rejected"   yaml:"rejected"`
	Skipped    int           `json:"skipped"    yaml:"skipped"`
	Written    int           `json:"written"    yaml:"written"`
	Duration   time.Duration `json:"duration"   yaml:"duration"`
	Bins       []BinReport   `json:"bins"       yaml:"bins"`
}

// Build assembles the report of res.
func Build(res *spike.Result, opts spike.Options, seed uint64, version string) RunReport {
	r := RunReport{
		Version:    version,
		Seed:       seed,
		Mode:       string(opts.Mode),
		Difference: string(opts.Difference),
		Initial:    opts.Initial.String(),
		Change:     opts.Change.String(),
		MinSpike:   res.MinSpike,
		MaxSpike:   opts.MaxSpike,
		Iterations: res.Stats.Iterations,
		Clusters:   res.Stats.Clusters,
		Evaluated:  res.Stats.Evaluated,
		Accepted:   res.Stats.Accepted,
		Rejected:   res.Stats.Rejected,
		Skipped:    res.Stats.Skipped,
		Duration:   res.Stats.Duration,
	}

	for _, bin := range res.Populated {
		br := BinReport{
			InitialLow: res.Spaces.Initial.Low(bin.Key.Initial),
			ChangeLow:  res.Spaces.Change.Low(bin.Key.Change),
			Spikes:     len(bin.Spikes),
			Written:    len(bin.Spikes) >= res.MinSpike,
		}

		if res.Spaces.Size != nil {
			low := res.Spaces.Size.Low(bin.Key.Size)
			br.SizeLow = &low
		}

		if br.Written {
			r.Written += br.Spikes
		}

		r.Bins = append(r.Bins, br)
	}

	return r
}

// Format is a report serialization.
type Format string

// Report formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks JSON for a .json path and YAML otherwise.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// Encode writes r to w in format f.
func Encode(w io.Writer, r RunReport, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
	}

	return nil
}

// WriteFile writes r to path in the format implied by its extension.
func WriteFile(path string, r RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	if err := Encode(f, r, FormatFor(path)); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}

	return nil
}
