// Package metrics exports controller statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes all metric names.
const Namespace = "cmdstepper"

// Recorder collects dispatch, routing, tick and traffic statistics.
// It satisfies manager.Recorder, command.Observer and transport.LinkObserver.
type Recorder struct {
	Registry *prometheus.Registry

	linesRouted     *prometheus.CounterVec
	linesUnroutable prometheus.Counter
	commands        *prometheus.CounterVec
	tickDuration    prometheus.Histogram
	linesReceived   prometheus.Counter
	linesDiscarded  prometheus.Counter
	messagesSent    *prometheus.CounterVec
	bytesSent       prometheus.Counter
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		linesRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lines_routed_total",
			Help:      "Command lines routed to a device.",
		}, []string{"header"}),
		linesUnroutable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lines_unroutable_total",
			Help:      "Command lines matching no device header.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commands_total",
			Help:      "Dispatched commands by recognition.",
		}, []string{"recognized"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent updating all devices in one tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		linesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lines_received_total",
			Help:      "Complete lines received from the transport.",
		}),
		linesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "lines_discarded_total",
			Help:      "Overlong lines discarded by the framer.",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_sent_total",
			Help:      "Messages written to the transport by result.",
		}, []string{"result"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_sent_total",
			Help:      "Bytes written to the transport.",
		}),
	}
	r.Registry.MustRegister(
		r.linesRouted,
		r.linesUnroutable,
		r.commands,
		r.tickDuration,
		r.linesReceived,
		r.linesDiscarded,
		r.messagesSent,
		r.bytesSent,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// LineRouted implements manager.Recorder.
func (r *Recorder) LineRouted(header string) {
	r.linesRouted.WithLabelValues(header).Inc()
}

// LineUnroutable implements manager.Recorder.
func (r *Recorder) LineUnroutable() {
	r.linesUnroutable.Inc()
}

// Ticked implements manager.Recorder.
func (r *Recorder) Ticked(d time.Duration) {
	r.tickDuration.Observe(d.Seconds())
}

// Dispatched implements command.Observer.
func (r *Recorder) Dispatched(token string, recognized bool) {
	if recognized {
		r.commands.WithLabelValues("true").Inc()
	} else {
		r.commands.WithLabelValues("false").Inc()
	}
}

// LineReceived implements transport.LinkObserver.
func (r *Recorder) LineReceived() {
	r.linesReceived.Inc()
}

// LineDiscarded implements transport.LinkObserver.
func (r *Recorder) LineDiscarded() {
	r.linesDiscarded.Inc()
}

// MessageSent implements transport.LinkObserver.
func (r *Recorder) MessageSent(size int, err error) {
	if err != nil {
		r.messagesSent.WithLabelValues("error").Inc()
		return
	}
	r.messagesSent.WithLabelValues("ok").Inc()
	r.bytesSent.Add(float64(size))
}
