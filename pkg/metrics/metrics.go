// Package metrics registers Prometheus collectors for coordinator activity.
// Every Collector owns its registry so sessions and tests never share counters.
package metrics

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "huddle"

// Collector implements the coordinator's Recorder on top of Prometheus
type Collector struct {
	registry *prometheus.Registry

	// queries counts handled queries partitioned by plan, e.g. "research+analysis"
	queries *prometheus.CounterVec

	// steps counts executed plan steps
	steps *prometheus.CounterVec

	// memoryQueries counts memory lookups by outcome: similar, keyword or none
	memoryQueries *prometheus.CounterVec

	memoryRecords prometheus.Gauge
}

// New creates a Collector registered into a fresh registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "queries_total",
			Help:      "Number of queries handled, partitioned by execution plan.",
		}, []string{"plan"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "steps_total",
			Help:      "Number of plan steps executed.",
		}, []string{"step"}),
		memoryQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "queries_total",
			Help:      "Number of memory lookups, partitioned by outcome.",
		}, []string{"outcome"}),
		memoryRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "records",
			Help:      "Number of records in the similarity index.",
		}),
	}
}

// Registry returns the registry the collectors are registered into
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveQuery counts a handled query under its plan label
func (c *Collector) ObserveQuery(plan model.Plan) {
	c.queries.WithLabelValues(PlanLabel(plan)).Inc()
}

// ObserveStep counts one executed plan step
func (c *Collector) ObserveStep(step model.Step) {
	c.steps.WithLabelValues(string(step)).Inc()
}

// ObserveMemoryQuery counts a memory lookup by outcome
func (c *Collector) ObserveMemoryQuery(outcome string) {
	c.memoryQueries.WithLabelValues(outcome).Inc()
}

// SetMemoryRecords sets the current size of the similarity index
func (c *Collector) SetMemoryRecords(n int) {
	c.memoryRecords.Set(float64(n))
}

// PlanLabel joins plan steps with "+"
func PlanLabel(plan model.Plan) string {
	steps := make([]string, len(plan))
	for i, s := range plan {
		steps[i] = string(s)
	}
	return strings.Join(steps, "+")
}

// WriteText writes one "name{labels} value" line per sample, sorted by name
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return goerr.Wrap(err, "failed to gather metrics")
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), formatLabels(m.GetLabel()), sampleValue(mf.GetType(), m)))
		}
	}
	slices.Sort(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return goerr.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}
