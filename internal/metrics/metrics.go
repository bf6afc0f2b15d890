// Package metrics records per-run statistics in a private Prometheus
// registry. A run is a one-shot batch, so the metrics are exported by
// writing a node_exporter textfile rather than serving /metrics.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "milestones"

// Recorder holds the metrics of one run.
type Recorder struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	maxLane       prometheus.Gauge
	years         prometheus.Gauge
	stageDuration *prometheus.GaugeVec
	lastSuccessTS prometheus.Gauge
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Milestones rendered, by completion status",
	}, []string{"done"})
	r.maxLane = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "max_lane",
		Help:      "Largest absolute lane assigned",
	})
	r.years = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "years",
		Help:      "Distinct years (rows) in the timeline",
	})
	r.stageDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage",
	}, []string{"stage"})
	r.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful render",
	})

	r.registry.MustRegister(r.events, r.maxLane, r.years, r.stageDuration, r.lastSuccessTS)
	return r
}

// ObserveEvent counts one rendered milestone.
func (r *Recorder) ObserveEvent(done bool) {
	r.events.WithLabelValues(strconv.FormatBool(done)).Inc()
}

// ObserveLayout records the shape of the lane assignment.
func (r *Recorder) ObserveLayout(maxLane, years int) {
	r.maxLane.Set(float64(maxLane))
	r.years.Set(float64(years))
}

// ObserveStage records how long stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// MarkSuccess stamps the time of a successful run.
func (r *Recorder) MarkSuccess(now time.Time) {
	r.lastSuccessTS.Set(float64(now.Unix()))
}

// WriteTextfile writes all metrics in the text exposition format to path.
// The write is atomic, as node_exporter may read the file at any time.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
