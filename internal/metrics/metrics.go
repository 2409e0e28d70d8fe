// Package metrics exposes emitter dispatch counters to Prometheus.
package metrics

import (
	"sort"
	"sync/atomic"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/eventmix/internal/event"
)

// Namespace is the default metric namespace.
const Namespace = "eventmix"

// Counts is a point-in-time copy of the counters kept for one topic.
type Counts struct {
	Triggers    uint64 `json:"triggers"`
	Invocations uint64 `json:"invocations"`
	Failures    uint64 `json:"failures"`
	Stopped     uint64 `json:"stopped"`
	ElapsedNs   int64  `json:"elapsedNs"`
}

type counters struct {
	triggers    atomic.Uint64
	invocations atomic.Uint64
	failures    atomic.Uint64
	stopped     atomic.Uint64
	elapsedNs   atomic.Int64
}

// Recorder counts dispatches per triggered topic. It implements
// event.Observer and prometheus.Collector, so one value can be handed to
// event.WithObserver and registered with Prometheus.
type Recorder struct {
	topics *csmap.CsMap[string, *counters]

	triggers    *prometheus.Desc
	invocations *prometheus.Desc
	failures    *prometheus.Desc
	stopped     *prometheus.Desc
	elapsed     *prometheus.Desc
}

var (
	_ event.Observer       = (*Recorder)(nil)
	_ prometheus.Collector = (*Recorder)(nil)
)

// NewRecorder creates a recorder whose metrics use the given namespace.
// An empty namespace selects Namespace.
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = Namespace
	}
	labels := []string{"event"}

	return &Recorder{
		topics: csmap.Create[string, *counters](
			csmap.WithSize[string, *counters](64),
		),
		triggers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "trigger", "total"),
			"Trigger calls per event",
			labels,
			nil,
		),
		invocations: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "listener_invocation", "total"),
			"Listener invocations per triggered event",
			labels,
			nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "listener_failure", "total"),
			"Dispatches aborted by a listener error",
			labels,
			nil,
		),
		stopped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "propagation_stopped", "total"),
			"Dispatches that ended with propagation stopped",
			labels,
			nil,
		),
		elapsed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "dispatch_seconds", "total"),
			"Time spent dispatching completed triggers",
			labels,
			nil,
		),
	}
}

func (r *Recorder) counters(name string) *counters {
	if c, ok := r.topics.Load(name); ok {
		return c
	}
	r.topics.SetIfAbsent(name, &counters{})
	c, _ := r.topics.Load(name)
	return c
}

// Triggered implements event.Observer.
func (r *Recorder) Triggered(e *event.Event, invoked int, elapsed time.Duration) {
	c := r.counters(e.Type.String())
	c.triggers.Add(1)
	c.invocations.Add(uint64(invoked))
	c.elapsedNs.Add(elapsed.Nanoseconds())
	if e.IsPropagationStopped() {
		c.stopped.Add(1)
	}
}

// ListenerFailed implements event.Observer.
func (r *Recorder) ListenerFailed(e *event.Event, _ error) {
	c := r.counters(e.Type.String())
	c.triggers.Add(1)
	c.failures.Add(1)
}

// Snapshot returns the counters of every topic seen so far.
func (r *Recorder) Snapshot() map[string]Counts {
	result := make(map[string]Counts, r.topics.Count())
	r.topics.Range(func(name string, c *counters) bool {
		result[name] = Counts{
			Triggers:    c.triggers.Load(),
			Invocations: c.invocations.Load(),
			Failures:    c.failures.Load(),
			Stopped:     c.stopped.Load(),
			ElapsedNs:   c.elapsedNs.Load(),
		}
		return false
	})
	return result
}

// Topics returns the topics seen so far, sorted.
func (r *Recorder) Topics() []string {
	names := make([]string, 0, r.topics.Count())
	r.topics.Range(func(name string, _ *counters) bool {
		names = append(names, name)
		return false
	})
	sort.Strings(names)
	return names
}

// Reset drops every counter.
func (r *Recorder) Reset() {
	r.topics.Clear()
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(r, ch)
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	for name, c := range r.Snapshot() {
		ch <- prometheus.MustNewConstMetric(
			r.triggers,
			prometheus.CounterValue,
			float64(c.Triggers),
			name,
		)

		ch <- prometheus.MustNewConstMetric(
			r.invocations,
			prometheus.CounterValue,
			float64(c.Invocations),
			name,
		)

		ch <- prometheus.MustNewConstMetric(
			r.failures,
			prometheus.CounterValue,
			float64(c.Failures),
			name,
		)

		ch <- prometheus.MustNewConstMetric(
			r.stopped,
			prometheus.CounterValue,
			float64(c.Stopped),
			name,
		)

		ch <- prometheus.MustNewConstMetric(
			r.elapsed,
			prometheus.CounterValue,
			time.Duration(c.ElapsedNs).Seconds(),
			name,
		)
	}
}
