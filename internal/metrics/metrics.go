// Package metrics exposes the reflector's Prometheus counters and gauges.
// Grounded in the teacher's metrics package (group/dimension-tagged counters
// and gauges behind package-level Incr/Update helpers) but wired directly to
// github.com/prometheus/client_golang instead of a generic pluggable
// Reporter, since this process has exactly one metrics sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reflector"

// Registry is the process-wide metric registry. A dedicated registry (rather
// than the global default) keeps the exported surface limited to exactly the
// metrics this package declares.
var Registry = prometheus.NewRegistry()

var (
	ConnectionsTotal = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_total",
		Help:      "Total TCP connections accepted.",
	}))

	ConnectionsActive = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_active",
		Help:      "Currently connected (authenticated) clients.",
	}))

	AuthFailuresTotal = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Authentication attempts that failed.",
	}))

	TalkerChangesTotal = registerVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "talker_changes_total",
		Help:      "Talker start/stop transitions per talkgroup.",
	}, []string{"tg"}))

	UDPFramesDroppedTotal = registerVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "udp_frames_dropped_total",
		Help:      "UDP audio-plane datagrams dropped, by reason.",
	}, []string{"reason"}))

	ControlFramesDroppedTotal = registerVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "control_frames_dropped_total",
		Help:      "TCP control-plane frames dropped, by reason.",
	}, []string{"reason"}))

	UDPFramesLostTotal = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "udp_frames_lost_total",
		Help:      "UDP sequence-number gaps detected (frames presumed lost).",
	}))

	QSYExhaustedTotal = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "qsy_exhausted_total",
		Help:      "Random QSY requests that found no free talkgroup.",
	}))

	SquelchTimeoutsTotal = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "squelch_timeouts_total",
		Help:      "Talkers forcibly cleared by the squelch timeout.",
	}))

	CoreQueueDepth = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "core_event_queue_depth",
		Help:      "Pending events in the single-threaded core loop's mailbox.",
	}))
)

func register[T prometheus.Collector](c T) T {
	Registry.MustRegister(c)
	return c
}

func registerVec[T prometheus.Collector](c T) T {
	Registry.MustRegister(c)
	return c
}
