// Package metrics records command outcomes for the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Commands counts and times every command the host runs.
type Commands struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCommands registers the command collectors on reg. The server passes
// prometheus.DefaultRegisterer so they are served next to the HTTP metrics.
func NewCommands(namespace string, reg prometheus.Registerer) *Commands {
	c := &Commands{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands run, by command and outcome.",
		}, []string{"command", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command transaction time, by command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
	reg.MustRegister(c.total, c.duration)
	return c
}

// Observe records one command. outcome is "ok", a failure kind, or "error".
func (c *Commands) Observe(command, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.total.WithLabelValues(command, outcome).Inc()
	c.duration.WithLabelValues(command).Observe(elapsed.Seconds())
}
