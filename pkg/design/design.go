// Package design loads experimental design tables.
//
// A design table has one row per track with the columns track, include,
// group and pair:
//
//	track   include group   pair
//	ctrl_1  1       ctrl    1
//	treat_1 1       treat   1
package design

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tbrown91/cgat/pkg/table"
)

// Required column names.
const (
	ColumnTrack   = "track"
	ColumnInclude = "include"
	ColumnGroup   = "group"
	ColumnPair    = "pair"
)

// FirstPair is the pair id that takes part in spike generation.
const FirstPair = 1

// ErrInvalidDesign indicates a malformed design table.
var ErrInvalidDesign = errors.New("invalid design")

// Track is one row of the design.
type Track struct {
	Name    string
	Include bool
	Group   string
	Pair    int
}

// Design is the ordered list of tracks.
type Design struct {
	Tracks []Track
}

// Read parses a design table.
func Read(r io.Reader) (Design, error) {
	tbl, err := table.Read(r)
	if err != nil {
		return Design{}, fmt.Errorf("%w: %w", ErrInvalidDesign, err)
	}

	return FromTable(tbl)
}

// Load reads the design table at path.
func Load(path string) (Design, error) {
	rc, err := table.Open(path)
	if err != nil {
		return Design{}, err
	}
	defer rc.Close()

	return Read(rc)
}

// FromTable converts a parsed table into a Design.
func FromTable(tbl *table.Table) (Design, error) {
	if missing := tbl.Missing(ColumnTrack, ColumnInclude, ColumnGroup, ColumnPair); len(missing) > 0 {
		return Design{}, fmt.Errorf("%w: missing columns %s", ErrInvalidDesign, strings.Join(missing, ", "))
	}

	trackCol, _ := tbl.Column(ColumnTrack)
	includeCol, _ := tbl.Column(ColumnInclude)
	groupCol, _ := tbl.Column(ColumnGroup)
	pairCol, _ := tbl.Column(ColumnPair)

	d := Design{Tracks: make([]Track, 0, tbl.Len())}
	seen := make(map[string]bool, tbl.Len())

	for row := range tbl.Len() {
		name := strings.TrimSpace(tbl.Cell(row, trackCol).Text)
		if name == "" {
			return Design{}, fmt.Errorf("%w: row %d has an empty track name", ErrInvalidDesign, row+1)
		}

		if seen[name] {
			return Design{}, fmt.Errorf("%w: track %q listed twice", ErrInvalidDesign, name)
		}

		seen[name] = true

		include, err := parseInt(tbl.Cell(row, includeCol).Text)
		if err != nil {
			return Design{}, fmt.Errorf("%w: track %q include: %w", ErrInvalidDesign, name, err)
		}

		pair, err := parseInt(tbl.Cell(row, pairCol).Text)
		if err != nil {
			return Design{}, fmt.Errorf("%w: track %q pair: %w", ErrInvalidDesign, name, err)
		}

		d.Tracks = append(d.Tracks, Track{
			Name:    name,
			Include: include != 0,
			Group:   strings.TrimSpace(tbl.Cell(row, groupCol).Text),
			Pair:    pair,
		})
	}

	return d, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}

	return v, nil
}

// Included returns the design restricted to tracks with include set.
func (d Design) Included() Design {
	return d.filter(func(t Track) bool { return t.Include })
}

// Pair returns the design restricted to one pair id.
func (d Design) Pair(pair int) Design {
	return d.filter(func(t Track) bool { return t.Pair == pair })
}

// Names returns the track names in order.
func (d Design) Names() []string {
	names := make([]string, len(d.Tracks))
	for i, t := range d.Tracks {
		names[i] = t.Name
	}

	return names
}

// Restrict returns the design keeping only tracks whose names are in keep.
func (d Design) Restrict(keep []string) Design {
	set := make(map[string]bool, len(keep))
	for _, k := range keep {
		set[k] = true
	}

	return d.filter(func(t Track) bool { return set[t.Name] })
}

func (d Design) filter(keep func(Track) bool) Design {
	out := Design{}

	for _, t := range d.Tracks {
		if keep(t) {
			out.Tracks = append(out.Tracks, t)
		}
	}

	return out
}
