package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CommandMetrics records per-command outcomes at the dispatch layer.
type CommandMetrics interface {
	// ObserveCommand records one handled command and its result code
	// (the symbolic error name, "NONE" on success).
	ObserveCommand(command, result string)
}

// NewCommandMetrics returns a Prometheus-backed CommandMetrics, or a no-op
// implementation when metrics are disabled.
func NewCommandMetrics() CommandMetrics {
	if !IsEnabled() {
		return NewNoopCommandMetrics()
	}

	reg := GetRegistry()

	return &commandMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcufs_commands_total",
				Help: "Total number of filesystem commands handled, by command and result code",
			},
			[]string{"command", "result"},
		),
	}
}

type commandMetrics struct {
	commandsTotal *prometheus.CounterVec
}

func (m *commandMetrics) ObserveCommand(command, result string) {
	m.commandsTotal.WithLabelValues(command, result).Inc()
}

// NewNoopCommandMetrics returns a CommandMetrics that records nothing.
func NewNoopCommandMetrics() CommandMetrics {
	return noopCommandMetrics{}
}

type noopCommandMetrics struct{}

func (noopCommandMetrics) ObserveCommand(string, string) {}
