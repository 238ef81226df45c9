// Package metrics wires a small set of prometheus instruments into the
// session/command/store layers (SPEC_FULL.md §6). It is optional and
// zero-cost when unused: every collaborator accepts a *Metrics that may
// be nil, in which case increments are skipped entirely.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the counters/gauges the core optionally reports.
type Metrics struct {
	FramesSent      prometheus.Counter
	FramesReceived  prometheus.Counter
	CommandsTotal   *prometheus.CounterVec
	BlobsPacked     prometheus.Counter
	PackBytesWritten prometheus.Counter
}

// New creates and registers the instrument set against reg. Pass a
// fresh *prometheus.Registry (not the global default) so tests and
// multiple Sessions in one process don't collide on metric names.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntt_frames_sent_total",
			Help: "Frames written to the transport, control and data combined.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntt_frames_received_total",
			Help: "Frames read from the transport, control and data combined.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntt_commands_total",
			Help: "Command Executions by kind.",
		}, []string{"command"}),
		BlobsPacked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntt_store_blobs_packed_total",
			Help: "Loose blobs folded into a pack by PackBlobs.",
		}),
		PackBytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntt_store_pack_bytes_written_total",
			Help: "Bytes written to pack files, including entry framing.",
		}),
	}
	reg.MustRegister(m.FramesSent, m.FramesReceived, m.CommandsTotal, m.BlobsPacked, m.PackBytesWritten)
	return m
}

// IncFramesSent and the other methods below are nil-safe: on a nil
// *Metrics they do nothing, so call sites need no nil checks of their
// own.
func (m *Metrics) IncFramesSent() {
	if m != nil {
		m.FramesSent.Inc()
	}
}

func (m *Metrics) IncFramesReceived() {
	if m != nil {
		m.FramesReceived.Inc()
	}
}

func (m *Metrics) ObserveCommand(name string) {
	if m != nil {
		m.CommandsTotal.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) AddBlobsPacked(n int) {
	if m != nil {
		m.BlobsPacked.Add(float64(n))
	}
}

func (m *Metrics) AddPackBytes(n int) {
	if m != nil {
		m.PackBytesWritten.Add(float64(n))
	}
}
