package report

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tbrown91/cgat/pkg/alg/stats"
	"github.com/tbrown91/cgat/pkg/spike"
)

const (
	heatMapWidth  = "1000px"
	heatMapHeight = "650px"
	rotateDegrees = 45
	labelFontSize = 10
)

// HeatMap plots the spike count of every initial × change bin. In cluster
// mode the counts of all subcluster sizes are summed.
func HeatMap(res *spike.Result) *charts.HeatMap {
	initial := axisLabels(res.Spaces.Initial)
	change := axisLabels(res.Spaces.Change)

	counts := make(map[[2]int]int)
	for _, bin := range res.Populated {
		counts[[2]int{bin.Key.Initial, bin.Key.Change}] += len(bin.Spikes)
	}

	keys := slices.SortedFunc(maps.Keys(counts), func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}

		return cmp.Compare(a[1], b[1])
	})

	data := make([]opts.HeatMapData, len(keys))
	values := make([]int, len(keys))

	for i, key := range keys {
		data[i] = opts.HeatMapData{Value: []any{key[0], key[1], counts[key]}}
		values[i] = counts[key]
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Spike population",
			Subtitle: fmt.Sprintf("%d accepted, %d bins populated", res.Stats.Accepted, res.Stats.Populated),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: heatMapWidth, Height: heatMapHeight}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "initial", Type: "category", Data: initial,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{Rotate: rotateDegrees, FontSize: labelFontSize},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "change", Type: "category", Data: change,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
			AxisLabel: &opts.AxisLabel{FontSize: labelFontSize},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true), Min: 0, Max: float32(stats.Max(values)),
			InRange: &opts.VisualMapInRange{Color: []string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"}},
			Orient:  "horizontal", Left: "center", Bottom: "2%",
		}),
	)
	hm.AddSeries("spikes", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "inside"}))

	return hm
}

func axisLabels(b *spike.BinSpace) []string {
	labels := make([]string, b.Len())
	for i := range labels {
		labels[i] = fmt.Sprintf("%g", b.Low(i))
	}

	return labels
}

// WriteHeatMap renders the heat map of res as an HTML page.
func WriteHeatMap(w io.Writer, res *spike.Result) error {
	if err := HeatMap(res).Render(w); err != nil {
		return fmt.Errorf("render heat map: %w", err)
	}

	return nil
}

// WriteHeatMapFile writes the heat map page to path.
func WriteHeatMapFile(path string, res *spike.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	if err := WriteHeatMap(f, res); err != nil {
		_ = f.Close()

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close plot: %w", err)
	}

	return nil
}
