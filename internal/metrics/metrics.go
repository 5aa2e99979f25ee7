// Package metrics counts table operation and migration outcomes with
// Prometheus collectors.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// Namespace prefixes every metric name.
const Namespace = "leapdest"

// Collector records every observed event on its own registry.
type Collector struct {
	registry *prometheus.Registry

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

var _ core.Observer = (*Collector)(nil)

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of table operations and migrations by outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of table operations and migrations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(c.Operations)
	reg.MustRegister(c.OperationDuration)
	return c
}

// Observe counts ev and records its duration.
func (c *Collector) Observe(ev core.Event) {
	c.Operations.WithLabelValues(ev.Operation, ev.Outcome.String()).Inc()
	c.OperationDuration.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
}

// Registry returns the Prometheus registry metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current values in the text exposition format,
// for collection by node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
