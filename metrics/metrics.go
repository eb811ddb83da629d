// Package metrics exposes the transport core's operational counters and
// gauges via the Prometheus client library. Silent-drop counters are
// intentionally coarse: they must never leak enough information for an
// unauthenticated peer to distinguish a replay from an auth failure (see
// the error handling design), so they are bucketed by drop class only, never
// by session or address.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// DropClass names a SilentDrop cause for the drop-count vector.
type DropClass string

const (
	DropBadHeader     DropClass = "bad_header"
	DropUnknownSess   DropClass = "unknown_session"
	DropReplay        DropClass = "nonce_replay"
	DropAuthFail      DropClass = "auth_fail"
	DropOversizedFrame DropClass = "oversized_frame"
)

// Set bundles every metric the transport core registers. A nil *Set is safe
// to call methods on (they become no-ops), so components can be constructed
// without metrics wired in tests.
type Set struct {
	silentDrops     *prometheus.CounterVec
	retransmits     prometheus.Counter
	migrations      prometheus.Counter
	migrationsRej   prometheus.Counter
	rttSRTT         prometheus.Gauge
	rttVar          prometheus.Gauge
	rttRTO          prometheus.Gauge
	pacerSends      prometheus.Counter
}

// NewSet creates and registers a Set against reg. Pass prometheus.NewRegistry()
// in tests to avoid polluting the global registry.
func NewSet(reg prometheus.Registerer) *Set {
	s := &Set{
		silentDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "silent_drops_total",
			Help:      "Frames dropped silently by class, per the SilentDrop error kind.",
		}, []string{"class"}),
		retransmits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "retransmits_total",
			Help:      "Retransmit controller fire events.",
		}),
		migrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "migrations_promoted_total",
			Help:      "Connection migrations promoted to validated.",
		}),
		migrationsRej: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "migrations_rejected_total",
			Help:      "Candidate migrations rejected by the subnet rate limit.",
		}),
		rttSRTT: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "rtt_srtt_seconds",
			Help:      "Smoothed RTT estimate.",
		}),
		rttVar: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "rtt_rttvar_seconds",
			Help:      "RTT mean deviation estimate.",
		}),
		rttRTO: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "rtt_rto_seconds",
			Help:      "Current retransmission timeout.",
		}),
		pacerSends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nomad",
			Subsystem: "transport",
			Name:      "pacer_sends_total",
			Help:      "Frames admitted by the pacer.",
		}),
	}

	if reg != nil {
		reg.MustRegister(s.silentDrops, s.retransmits, s.migrations,
			s.migrationsRej, s.rttSRTT, s.rttVar, s.rttRTO, s.pacerSends)
	}
	return s
}

func (s *Set) IncDrop(class DropClass) {
	if s == nil {
		return
	}
	s.silentDrops.WithLabelValues(string(class)).Inc()
}

func (s *Set) IncRetransmit() {
	if s == nil {
		return
	}
	s.retransmits.Inc()
}

func (s *Set) IncMigrationPromoted() {
	if s == nil {
		return
	}
	s.migrations.Inc()
}

func (s *Set) IncMigrationRejected() {
	if s == nil {
		return
	}
	s.migrationsRej.Inc()
}

func (s *Set) IncPacerSend() {
	if s == nil {
		return
	}
	s.pacerSends.Inc()
}

// SetRTT updates the RTT gauges from an estimator snapshot. Values are in
// seconds, matching Prometheus duration convention.
func (s *Set) SetRTT(srtt, rttvar, rto float64) {
	if s == nil {
		return
	}
	s.rttSRTT.Set(srtt)
	s.rttVar.Set(rttvar)
	s.rttRTO.Set(rto)
}
