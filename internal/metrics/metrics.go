// Package metrics exports per-run counters as a Prometheus textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salespipe"

// Run is the outcome of one pipeline run.
type Run struct {
	RowsRead    int
	RowsWritten int
	Dropped     map[string]int // by drop reason
	Revenue     float64
	Profit      float64
	Duration    time.Duration
	Success     bool
	Finished    time.Time
}

// collectors holds the gauges registered for a run.
type collectors struct {
	RowsRead    prometheus.Gauge
	RowsWritten prometheus.Gauge
	RowsDropped *prometheus.GaugeVec
	Revenue     prometheus.Gauge
	Profit      prometheus.Gauge
	Duration    prometheus.Gauge
	Success     prometheus.Gauge
	Timestamp   prometheus.Gauge
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// NewRegistry builds a private registry populated from r.
func NewRegistry(r Run) (*prometheus.Registry, error) {
	c := &collectors{
		RowsRead:    gauge("rows_read", "Input rows read by the last run."),
		RowsWritten: gauge("rows_written", "Cleaned rows exported by the last run."),
		RowsDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_dropped",
			Help:      "Rows dropped by the last run, by reason.",
		}, []string{"reason"}),
		Revenue:   gauge("revenue", "Total revenue of the last run."),
		Profit:    gauge("profit", "Total profit of the last run."),
		Duration:  gauge("run_duration_seconds", "Wall time of the last run."),
		Success:   gauge("last_run_success", "1 when the last run succeeded."),
		Timestamp: gauge("last_run_timestamp_seconds", "Unix time the last run finished."),
	}

	reg := prometheus.NewRegistry()
	for _, col := range []prometheus.Collector{
		c.RowsRead, c.RowsWritten, c.RowsDropped, c.Revenue, c.Profit, c.Duration, c.Success, c.Timestamp,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	c.RowsRead.Set(float64(r.RowsRead))
	c.RowsWritten.Set(float64(r.RowsWritten))
	for reason, n := range r.Dropped {
		c.RowsDropped.WithLabelValues(reason).Set(float64(n))
	}
	c.Revenue.Set(r.Revenue)
	c.Profit.Set(r.Profit)
	c.Duration.Set(r.Duration.Seconds())
	if r.Success {
		c.Success.Set(1)
	}
	if !r.Finished.IsZero() {
		c.Timestamp.Set(float64(r.Finished.Unix()))
	}
	return reg, nil
}

// WriteTextfile writes r to path in the text exposition format, for the
// node_exporter textfile collector.
func WriteTextfile(path string, r Run) error {
	reg, err := NewRegistry(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
