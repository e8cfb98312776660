// Package metrics exposes negotiation activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alienxp03/parley/internal/core"
)

const namespace = "parley"

// Recorder holds the negotiation collectors in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	outcomes       *prometheus.CounterVec
	rounds         prometheus.Histogram
	messages       *prometheus.CounterVec
	reactionErrors *prometheus.CounterVec
	running        prometheus.Gauge
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_total",
			Help:      "Finished negotiations by final status.",
		}, []string{"status"}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "negotiation_rounds",
			Help:      "Rounds played per finished negotiation.",
			Buckets:   []float64{1, 2, 4, 6, 8, 12, 16, 25, 50, 100},
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages sent between agents by performative.",
		}, []string{"performative"}),
		reactionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaction_errors_total",
			Help:      "Agent reactions that failed, by the performative being handled.",
		}, []string{"performative"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "negotiations_running",
			Help:      "Negotiations currently being run.",
		}),
	}

	r.registry.MustRegister(
		r.outcomes,
		r.rounds,
		r.messages,
		r.reactionErrors,
		r.running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the registry the collectors live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Started marks a negotiation as running.
func (r *Recorder) Started() {
	r.running.Inc()
}

// Finished records the final status and round count of a negotiation.
func (r *Recorder) Finished(status core.NegotiationStatus, rounds int) {
	r.running.Dec()
	r.outcomes.WithLabelValues(string(status)).Inc()
	r.rounds.Observe(float64(rounds))
}

// MessageSent counts one outgoing agent message.
func (r *Recorder) MessageSent(p core.Performative) {
	r.messages.WithLabelValues(string(p)).Inc()
}

// ReactionFailed counts an agent failing to react to an incoming message.
// Failures on the idle tick are labelled "NONE".
func (r *Recorder) ReactionFailed(in *core.Message) {
	label := "NONE"
	if in != nil {
		label = string(in.Performative)
	}
	r.reactionErrors.WithLabelValues(label).Inc()
}
