package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics records transport-level activity.
type ServerMetrics interface {
	// ConnectionOpened records an accepted connection.
	ConnectionOpened()

	// ConnectionClosed records a closed connection.
	ConnectionClosed()

	// FrameRead records one inbound frame and its payload size.
	FrameRead(bytes int)

	// FrameWritten records one outbound frame and its payload size.
	FrameWritten(bytes int)

	// UnhandledFrame records a frame whose opcode no handler claimed.
	UnhandledFrame()
}

// NewServerMetrics returns a Prometheus-backed ServerMetrics, or a no-op
// implementation when metrics are disabled.
func NewServerMetrics() ServerMetrics {
	if !IsEnabled() {
		return NewNoopServerMetrics()
	}

	reg := GetRegistry()

	return &serverMetrics{
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "mcufs_active_connections",
				Help: "Current number of open transport connections",
			},
		),
		connectionsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mcufs_connections_total",
				Help: "Total number of accepted transport connections",
			},
		),
		framesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcufs_frames_total",
				Help: "Total number of protocol frames, by direction",
			},
			[]string{"direction"},
		),
		frameBytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcufs_frame_bytes_total",
				Help: "Total protocol frame bytes, by direction",
			},
			[]string{"direction"},
		),
		unhandledTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mcufs_unhandled_frames_total",
				Help: "Total number of frames whose opcode no handler claimed",
			},
		),
	}
}

type serverMetrics struct {
	activeConnections prometheus.Gauge
	connectionsTotal  prometheus.Counter
	framesTotal       *prometheus.CounterVec
	frameBytesTotal   *prometheus.CounterVec
	unhandledTotal    prometheus.Counter
}

func (m *serverMetrics) ConnectionOpened() {
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *serverMetrics) ConnectionClosed() {
	m.activeConnections.Dec()
}

func (m *serverMetrics) FrameRead(bytes int) {
	m.framesTotal.WithLabelValues("in").Inc()
	m.frameBytesTotal.WithLabelValues("in").Add(float64(bytes))
}

func (m *serverMetrics) FrameWritten(bytes int) {
	m.framesTotal.WithLabelValues("out").Inc()
	m.frameBytesTotal.WithLabelValues("out").Add(float64(bytes))
}

func (m *serverMetrics) UnhandledFrame() {
	m.unhandledTotal.Inc()
}

// NewNoopServerMetrics returns a ServerMetrics that records nothing.
func NewNoopServerMetrics() ServerMetrics {
	return noopServerMetrics{}
}

type noopServerMetrics struct{}

func (noopServerMetrics) ConnectionOpened() {}
func (noopServerMetrics) ConnectionClosed() {}
func (noopServerMetrics) FrameRead(int)     {}
func (noopServerMetrics) FrameWritten(int)  {}
func (noopServerMetrics) UnhandledFrame()   {}
