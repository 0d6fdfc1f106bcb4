package design_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrown91/cgat/pkg/design"
)

const designTSV = `track	include	group	pair
ctrl_1	1	ctrl	1
ctrl_2	1	ctrl	1
treat_1	1	treat	1
treat_2	0	treat	1
treat_3	1	treat	2
`

func TestRead(t *testing.T) {
	t.Parallel()

	d, err := design.Read(strings.NewReader(designTSV))
	require.NoError(t, err)

	require.Len(t, d.Tracks, 5)
	assert.Equal(t, design.Track{Name: "ctrl_1", Include: true, Group: "ctrl", Pair: 1}, d.Tracks[0])
	assert.False(t, d.Tracks[3].Include)
	assert.Equal(t, 2, d.Tracks[4].Pair)
}

func TestIncludedFirstPair(t *testing.T) {
	t.Parallel()

	d, err := design.Read(strings.NewReader(designTSV))
	require.NoError(t, err)

	sel := d.Included().Pair(design.FirstPair)
	assert.Equal(t, []string{"ctrl_1", "ctrl_2", "treat_1"}, sel.Names())
}

func TestRestrict(t *testing.T) {
	t.Parallel()

	d, err := design.Read(strings.NewReader(designTSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"ctrl_2", "treat_3"}, d.Restrict([]string{"treat_3", "ctrl_2"}).Names())
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "missing_column", input: "track\tinclude\tgroup\nx\t1\tg\n"},
		{name: "bad_include", input: "track\tinclude\tgroup\tpair\nx\tyes\tg\t1\n"},
		{name: "duplicate_track", input: "track\tinclude\tgroup\tpair\nx\t1\tg\t1\nx\t1\th\t1\n"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := design.Read(strings.NewReader(tt.input))
			require.ErrorIs(t, err, design.ErrInvalidDesign)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "design.tsv")
	require.NoError(t, os.WriteFile(path, []byte(designTSV), 0o600))

	d, err := design.Load(path)
	require.NoError(t, err)
	assert.Len(t, d.Tracks, 5)

	_, err = design.Load(filepath.Join(t.TempDir(), "absent.tsv"))
	require.Error(t, err)
}
