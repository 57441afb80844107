// Package diagnostics gathers internal process metrics and periodically
// logs them. Metrics are never exposed over HTTP or any other network
// transport; they exist purely to be sampled and logged in-process.
package diagnostics

import (
	"os"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// Diagnostics owns a private Prometheus registry (never wired to an
// HTTP handler) and the process handle used for resource sampling.
type Diagnostics struct {
	registry *prometheus.Registry

	SessionsAccepted prometheus.Counter
	SessionsActive   prometheus.Gauge
	FramesIngested   prometheus.Counter
	MessagesSent     prometheus.Counter
	ProtocolErrors   prometheus.Counter

	proc *process.Process
}

// New constructs a Diagnostics instance bound to the current process.
func New() (*Diagnostics, error) {
	reg := prometheus.NewRegistry()

	d := &Diagnostics{
		registry: reg,
		SessionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "narcissus_sessions_accepted_total",
			Help: "Total client sessions accepted.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "narcissus_sessions_active",
			Help: "Currently active client sessions.",
		}),
		FramesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "narcissus_frames_ingested_total",
			Help: "Total camera frames ingested.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "narcissus_messages_sent_total",
			Help: "Total analyzer messages written to clients.",
		}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "narcissus_protocol_errors_total",
			Help: "Total session protocol violations observed.",
		}),
	}

	reg.MustRegister(d.SessionsAccepted, d.SessionsActive, d.FramesIngested, d.MessagesSent, d.ProtocolErrors)

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	d.proc = proc

	return d, nil
}

// LogResourceUsage samples RSS and CPU percent for the current process
// and logs it as one structured line.
func (d *Diagnostics) LogResourceUsage(log zerolog.Logger) {
	memInfo, memErr := d.proc.MemoryInfo()
	cpuPct, cpuErr := d.proc.CPUPercent()

	ev := log.Info()
	if memErr == nil && memInfo != nil {
		ev = ev.Uint64("rssBytes", memInfo.RSS)
	}
	if cpuErr == nil {
		ev = ev.Float64("cpuPercent", cpuPct)
	}
	ev = ev.Uint64("sessionsAccepted", counterValue(d.SessionsAccepted))
	ev.Msg("resource sample")
}

// Gather returns the current metric families from the internal
// registry, for in-process inspection (e.g. tests); it is intentionally
// never served over HTTP.
func (d *Diagnostics) Gather() ([]*dto.MetricFamily, error) {
	return d.registry.Gather()
}

func counterValue(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	if m.Counter == nil {
		return 0
	}
	return uint64(m.Counter.GetValue())
}
