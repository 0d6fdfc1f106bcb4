package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tbrown91/cgat/pkg/spike"
)

const (
	metricCandidatesTotal = "counts2counts.spike.candidates.total"
	metricIterationsTotal = "counts2counts.spike.iterations.total"
	metricRunDuration     = "counts2counts.spike.run.duration.seconds"
	metricBinsPopulated   = "counts2counts.spike.bins.populated"
	metricBinsFull        = "counts2counts.spike.bins.full"

	attrOutcome = "outcome"
	attrMode    = "mode"

	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeSkipped  = "skipped"
)

// durationBucketBoundaries covers 10ms to 10 minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// SpikeMetrics holds the instruments of a spike run. It implements
// spike.Observer.
type SpikeMetrics struct {
	candidates    metric.Int64Counter
	iterations    metric.Int64Counter
	runDuration   metric.Float64Histogram
	binsPopulated metric.Int64Gauge
	binsFull      metric.Int64Gauge
}

// NewSpikeMetrics creates the spike instruments from mt.
func NewSpikeMetrics(mt metric.Meter) (*SpikeMetrics, error) {
	candidates, err := mt.Int64Counter(metricCandidatesTotal,
		metric.WithDescription("Candidates drawn, by outcome"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCandidatesTotal, err)
	}

	iterations, err := mt.Int64Counter(metricIterationsTotal,
		metric.WithDescription("Completed shuffle iterations"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIterationsTotal, err)
	}

	runDuration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Spike generation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	populated, err := mt.Int64Gauge(metricBinsPopulated,
		metric.WithDescription("Bins holding at least one spike"),
		metric.WithUnit("{bin}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBinsPopulated, err)
	}

	full, err := mt.Int64Gauge(metricBinsFull,
		metric.WithDescription("Bins at the spike maximum"),
		metric.WithUnit("{bin}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBinsFull, err)
	}

	return &SpikeMetrics{
		candidates:    candidates,
		iterations:    iterations,
		runDuration:   runDuration,
		binsPopulated: populated,
		binsFull:      full,
	}, nil
}

// ObserveIteration records the candidate outcomes of one iteration.
func (m *SpikeMetrics) ObserveIteration(ctx context.Context, _ int, st spike.IterationStats) {
	m.iterations.Add(ctx, 1)
	m.addOutcome(ctx, outcomeAccepted, st.Accepted)
	m.addOutcome(ctx, outcomeRejected, st.Rejected)
	m.addOutcome(ctx, outcomeSkipped, st.Skipped)
}

func (m *SpikeMetrics) addOutcome(ctx context.Context, outcome string, n int) {
	if n == 0 {
		return
	}

	m.candidates.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordRun records the summary of a finished run.
func (m *SpikeMetrics) RecordRun(ctx context.Context, mode spike.Mode, st spike.RunStats) {
	attrs := metric.WithAttributes(attribute.String(attrMode, string(mode)))

	m.runDuration.Record(ctx, st.Duration.Seconds(), attrs)
	m.binsPopulated.Record(ctx, int64(st.Populated), attrs)
	m.binsFull.Record(ctx, int64(st.FullBins), attrs)
}

var _ spike.Observer = (*SpikeMetrics)(nil)
