package spike

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tbrown91/cgat/pkg/design"
)

// minTracksPerGroup is the smallest group that can be compared.
const minTracksPerGroup = 2

// Suffixes distinguishes the shuffled column of a track from the columns kept
// alongside it. With both empty, the track name is the only column.
type Suffixes struct {
	Shuffle string
	Keep    []string
}

// Enabled reports whether track names are stems to be suffixed.
func (s Suffixes) Enabled() bool {
	return s.Shuffle != "" || len(s.Keep) > 0
}

// stem strips a shuffle or keep suffix from a design track name.
func (s Suffixes) stem(name string) string {
	if s.Shuffle != "" {
		if trimmed, ok := strings.CutSuffix(name, s.Shuffle); ok && trimmed != "" {
			return trimmed
		}
	}

	for _, k := range s.Keep {
		if trimmed, ok := strings.CutSuffix(name, k); ok && trimmed != "" {
			return trimmed
		}
	}

	return name
}

// TrackColumns are the table columns belonging to one track.
type TrackColumns struct {
	Stem    string
	Shuffle string
	Keep    []string
}

// Carried returns the shuffle column followed by the keep columns, without repeats.
func (tc TrackColumns) Carried() []string {
	cols := []string{tc.Shuffle}

	for _, k := range tc.Keep {
		if !slices.Contains(cols, k) {
			cols = append(cols, k)
		}
	}

	return cols
}

// GroupColumns maps groups to their track columns. Groups is sorted; the
// first two groups are compared.
type GroupColumns struct {
	Groups []string
	Tracks map[string][]TrackColumns
}

// First returns the baseline group.
func (g GroupColumns) First() string { return g.Groups[0] }

// Second returns the compared group.
func (g GroupColumns) Second() string { return g.Groups[1] }

// ShuffleColumns returns the shuffled columns of group in design order.
func (g GroupColumns) ShuffleColumns(group string) []string {
	tracks := g.Tracks[group]

	cols := make([]string, len(tracks))
	for i, tc := range tracks {
		cols[i] = tc.Shuffle
	}

	return cols
}

// KeepColumns returns the kept columns of group in design order.
func (g GroupColumns) KeepColumns(group string) []string {
	var cols []string

	for _, tc := range g.Tracks[group] {
		cols = append(cols, tc.Keep...)
	}

	return cols
}

// Pooled returns the tracks of the first group followed by the second.
func (g GroupColumns) Pooled() []TrackColumns {
	return slices.Concat(g.Tracks[g.First()], g.Tracks[g.Second()])
}

// FirstSize returns the number of tracks in the first group.
func (g GroupColumns) FirstSize() int {
	return len(g.Tracks[g.First()])
}

// MapGroups resolves the included first-pair tracks of d to table columns.
func MapGroups(d design.Design, header []string, suffixes Suffixes) (GroupColumns, error) {
	selected := d.Included().Pair(design.FirstPair)
	columns := make(map[string]bool, len(header))

	for _, h := range header {
		columns[h] = true
	}

	gc := GroupColumns{Tracks: make(map[string][]TrackColumns)}
	seen := make(map[string]map[string]bool)

	for _, track := range selected.Tracks {
		tc := resolveTrack(track.Name, suffixes)

		if seen[track.Group] == nil {
			seen[track.Group] = make(map[string]bool)
			gc.Groups = append(gc.Groups, track.Group)
		}

		// Shuffle and keep variants of one stem may both be listed in the design.
		if seen[track.Group][tc.Stem] {
			continue
		}

		seen[track.Group][tc.Stem] = true

		for _, col := range tc.Carried() {
			if !columns[col] {
				return GroupColumns{}, fmt.Errorf("%w: track %q of group %q has no column %q",
					ErrConfiguration, track.Name, track.Group, col)
			}
		}

		gc.Tracks[track.Group] = append(gc.Tracks[track.Group], tc)
	}

	slices.SortFunc(gc.Groups, compareGroupIDs)

	if len(gc.Groups) < 2 {
		return GroupColumns{}, fmt.Errorf("%w: need two groups with include=1 and pair=%d, found %d",
			ErrConfiguration, design.FirstPair, len(gc.Groups))
	}

	for _, group := range gc.Groups[:2] {
		if n := len(gc.Tracks[group]); n < minTracksPerGroup {
			return GroupColumns{}, fmt.Errorf("%w: group %q has %d track(s), need at least %d",
				ErrConfiguration, group, n, minTracksPerGroup)
		}
	}

	return gc, nil
}

func resolveTrack(name string, suffixes Suffixes) TrackColumns {
	if !suffixes.Enabled() {
		return TrackColumns{Stem: name, Shuffle: name, Keep: []string{name}}
	}

	stem := suffixes.stem(name)
	tc := TrackColumns{Stem: stem, Shuffle: stem + suffixes.Shuffle}

	for _, k := range suffixes.Keep {
		tc.Keep = append(tc.Keep, stem+k)
	}

	return tc
}

// compareGroupIDs orders numeric ids numerically and everything else lexically.
func compareGroupIDs(a, b string) int {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)

	if errA == nil && errB == nil {
		return cmp.Compare(na, nb)
	}

	return strings.Compare(a, b)
}
