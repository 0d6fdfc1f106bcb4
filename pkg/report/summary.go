package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// timeResolution rounds the printed run duration.
const timeResolution = time.Millisecond

// WriteSummary prints the run totals and a table of populated bins. Bins
// kept for output are green, bins below the minimum yellow.
func WriteSummary(w io.Writer, r RunReport) error {
	header := color.New(color.Bold)
	written := color.New(color.FgGreen)
	short := color.New(color.FgYellow)

	if _, err := header.Fprintf(w, "%s spike run (%s): %s candidates, %s accepted, %s written in %s\n",
		r.Mode, r.Difference,
		humanize.Comma(int64(r.Evaluated)),
		humanize.Comma(int64(r.Accepted)),
		humanize.Comma(int64(r.Written)),
		r.Duration.Round(timeResolution)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	sized := len(r.Bins) > 0 && r.Bins[0].SizeLow != nil

	head := table.Row{"initial", "change"}
	if sized {
		head = append(head, "size")
	}

	tbl.AppendHeader(append(head, "spikes", "status"))

	for _, bin := range r.Bins {
		row := table.Row{humanize.Ftoa(bin.InitialLow), humanize.Ftoa(bin.ChangeLow)}
		if sized {
			row = append(row, humanize.Ftoa(*bin.SizeLow))
		}

		status := short.Sprintf("below %d", r.MinSpike)
		if bin.Written {
			status = written.Sprint("written")
		}

		tbl.AppendRow(append(row, bin.Spikes, status))
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%d bins", len(r.Bins))})
	tbl.Render()

	return nil
}
