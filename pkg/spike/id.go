package spike

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// idPrefix starts every synthetic identifier.
const idPrefix = "spike"

// ErrInvalidID indicates an identifier that was not produced by SpikeID.String.
var ErrInvalidID = errors.New("not a spike identifier")

// SpikeID describes the bin and position of one synthetic row. The bin is
// given by the lower edges of its initial, change and (cluster mode)
// subcluster-size intervals.
type SpikeID struct {
	InitialLow float64
	ChangeLow  float64
	SizeLow    float64
	HasSize    bool
	// Index is the position of the spike within its bin.
	Index int
	// Member is the position of the row within its subcluster, or -1 in row mode.
	Member int
}

// String formats the identifier as
// spike_i<initial>_c<change>[_s<size>]_<index>[_<member>].
func (id SpikeID) String() string {
	var b strings.Builder

	b.WriteString(idPrefix)
	fmt.Fprintf(&b, "_i%s_c%s", formatEdge(id.InitialLow), formatEdge(id.ChangeLow))

	if id.HasSize {
		fmt.Fprintf(&b, "_s%s", formatEdge(id.SizeLow))
	}

	fmt.Fprintf(&b, "_%d", id.Index)

	if id.Member >= 0 {
		fmt.Fprintf(&b, "_%d", id.Member)
	}

	return b.String()
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseID recovers the bin edges and positions encoded by SpikeID.String.
func ParseID(s string) (SpikeID, error) {
	fields := strings.Split(s, "_")
	if len(fields) < 4 || fields[0] != idPrefix {
		return SpikeID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	id := SpikeID{Member: -1}

	var err error

	if id.InitialLow, err = parseEdge(fields[1], 'i'); err != nil {
		return SpikeID{}, fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
	}

	if id.ChangeLow, err = parseEdge(fields[2], 'c'); err != nil {
		return SpikeID{}, fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
	}

	rest := fields[3:]

	if strings.HasPrefix(rest[0], "s") {
		if id.SizeLow, err = parseEdge(rest[0], 's'); err != nil {
			return SpikeID{}, fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
		}

		id.HasSize = true
		rest = rest[1:]
	}

	if len(rest) == 0 || len(rest) > 2 {
		return SpikeID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	if id.Index, err = strconv.Atoi(rest[0]); err != nil {
		return SpikeID{}, fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
	}

	if len(rest) == 2 {
		if id.Member, err = strconv.Atoi(rest[1]); err != nil {
			return SpikeID{}, fmt.Errorf("%w: %q: %w", ErrInvalidID, s, err)
		}
	}

	return id, nil
}

func parseEdge(field string, tag byte) (float64, error) {
	if len(field) < 2 || field[0] != tag {
		return 0, fmt.Errorf("expected %c<value>, got %q", tag, field)
	}

	v, err := strconv.ParseFloat(field[1:], 64)
	if err != nil {
		return 0, fmt.Errorf("parse %c edge: %w", tag, err)
	}

	return v, nil
}
