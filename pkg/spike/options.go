package spike

import (
	"fmt"
	"math"
	"strings"

	"github.com/tbrown91/cgat/pkg/table"
)

// Mode selects the unit that is shuffled.
type Mode string

// Spike modes.
const (
	ModeRow     Mode = "row"
	ModeCluster Mode = "cluster"
)

// OutputMethod selects how spikes are rendered.
type OutputMethod string

// Output methods.
const (
	OutputSeparate OutputMethod = "separate"
	OutputAppend   OutputMethod = "append"
)

// legacySeparate is the historical spelling still accepted on input.
const legacySeparate = "seperate"

// DefaultIDColumn names the identifier column when none is configured in
// separate output.
const DefaultIDColumn = "spike"

// Position columns required by cluster mode.
const (
	ColumnContig   = "contig"
	ColumnPosition = "position"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRow:
		return ModeRow, nil
	case ModeCluster:
		return ModeCluster, nil
	default:
		return "", fmt.Errorf("%w: unknown spike type %q (want row or cluster)", ErrConfiguration, s)
	}
}

// ParseOutputMethod parses an output method name.
func ParseOutputMethod(s string) (OutputMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(OutputSeparate), legacySeparate:
		return OutputSeparate, nil
	case string(OutputAppend):
		return OutputAppend, nil
	default:
		return "", fmt.Errorf("%w: unknown output method %q (want separate or append)", ErrConfiguration, s)
	}
}

// Range is a min/max/width triple describing a BinSpace.
type Range struct {
	Min   float64
	Max   float64
	Width float64
}

// String renders the range as min:max:width.
func (r Range) String() string {
	return fmt.Sprintf("%g:%g:%g", r.Min, r.Max, r.Width)
}

// SizeRange bounds subcluster sizes. Min and Max are inclusive.
type SizeRange struct {
	Min   int
	Max   int
	Width int
}

// Sizes lists the drawable subcluster sizes Min, Min+Width, ... <= Max.
func (s SizeRange) Sizes() []int {
	if s.Width <= 0 {
		return nil
	}

	var sizes []int
	for size := s.Min; size <= s.Max; size += s.Width {
		sizes = append(sizes, size)
	}

	return sizes
}

// Range returns the bin range covering the inclusive size interval.
func (s SizeRange) Range() Range {
	return Range{Min: float64(s.Min), Max: float64(s.Max + 1), Width: float64(s.Width)}
}

// Options holds every parameter of a generation run.
type Options struct {
	Mode       Mode
	Difference DifferenceMethod

	Initial    Range
	Change     Range
	Subcluster SizeRange

	// MinSpike of zero means MaxSpike.
	MinSpike   int
	MaxSpike   int
	Iterations int

	Output    OutputMethod
	IDColumns []string

	ClusterMaxDistance float64
	ClusterMinSize     int

	// Workers > 1 evaluates the candidates of one iteration in parallel.
	Workers int

	Policy table.NumericPolicy
}

// DefaultOptions returns the defaults of the command-line tool.
func DefaultOptions() Options {
	return Options{
		Mode:               ModeRow,
		Difference:         DifferenceLogFold,
		Initial:            Range{Min: 0, Max: 100, Width: 100},
		Change:             Range{Min: 0, Max: 100, Width: 100},
		Subcluster:         SizeRange{Min: 1, Max: 1, Width: 1},
		MaxSpike:           100,
		Iterations:         1,
		Output:             OutputSeparate,
		ClusterMaxDistance: 100,
		ClusterMinSize:     10,
		Workers:            1,
		Policy:             table.SkipOnNumericError,
	}
}

// EffectiveMinSpike returns MinSpike, or MaxSpike when MinSpike is unset.
func (o Options) EffectiveMinSpike() int {
	if o.MinSpike <= 0 {
		return o.MaxSpike
	}

	return o.MinSpike
}

// Validate checks the options before any candidate is generated.
func (o Options) Validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}

	if _, err := ParseDifferenceMethod(string(o.Difference)); err != nil {
		return err
	}

	if _, err := ParseOutputMethod(string(o.Output)); err != nil {
		return err
	}

	if o.Output == OutputAppend && len(o.IDColumns) == 0 {
		return fmt.Errorf("%w: id column(s) must be specified to append %s spikes", ErrConfiguration, o.Mode)
	}

	if err := validateRange("initial", o.Initial); err != nil {
		return err
	}

	if err := validateRange("change", o.Change); err != nil {
		return err
	}

	if o.MaxSpike < 1 {
		return fmt.Errorf("%w: spike maximum must be positive, got %d", ErrConfiguration, o.MaxSpike)
	}

	if o.MinSpike < 0 || o.MinSpike > o.MaxSpike {
		return fmt.Errorf("%w: spike minimum %d must be within 0..%d", ErrConfiguration, o.MinSpike, o.MaxSpike)
	}

	if o.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrConfiguration, o.Iterations)
	}

	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrConfiguration, o.Workers)
	}

	if o.Mode == ModeCluster {
		return o.validateCluster()
	}

	return nil
}

func (o Options) validateCluster() error {
	sub := o.Subcluster

	if sub.Width <= 0 {
		return fmt.Errorf("%w: subcluster bin width must be positive, got %d", ErrConfiguration, sub.Width)
	}

	if sub.Min < 1 || sub.Max < sub.Min {
		return fmt.Errorf("%w: subcluster sizes %d..%d are not a valid range", ErrConfiguration, sub.Min, sub.Max)
	}

	if o.ClusterMinSize < 1 {
		return fmt.Errorf("%w: cluster minimum size must be positive, got %d", ErrConfiguration, o.ClusterMinSize)
	}

	if sub.Max > o.ClusterMinSize {
		return fmt.Errorf("%w: max size of subcluster %d is greater than min size of cluster %d",
			ErrConfiguration, sub.Max, o.ClusterMinSize)
	}

	if !isFinite(o.ClusterMaxDistance) || o.ClusterMaxDistance < 0 {
		return fmt.Errorf("%w: cluster maximum distance must be finite and non-negative, got %g", ErrConfiguration, o.ClusterMaxDistance)
	}

	return nil
}

func validateRange(name string, r Range) error {
	if !isFinite(r.Min) || !isFinite(r.Max) || !isFinite(r.Width) {
		return fmt.Errorf("%w: %s bins %s must be finite", ErrConfiguration, name, r)
	}

	if r.Width <= 0 {
		return fmt.Errorf("%w: %s bin width must be positive, got %g", ErrConfiguration, name, r.Width)
	}

	if r.Max <= r.Min {
		return fmt.Errorf("%w: %s bin max %g must exceed min %g", ErrConfiguration, name, r.Max, r.Min)
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
