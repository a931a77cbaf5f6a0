// Package collector runs the periodic sweep that evicts stale peers across
// every swarm in a registry, independent of the best-effort eviction that
// happens during sampling.
package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bttracker/internal/swarm"
	"bttracker/internal/trackmetrics"
)

// Collector periodically sweeps a Registry for unfresh peers.
type Collector struct {
	registry *swarm.Registry
	interval time.Duration
	log      zerolog.Logger
	metrics  *trackmetrics.Metrics
}

// New returns a Collector that sweeps registry every interval.
func New(registry *swarm.Registry, interval time.Duration, log zerolog.Logger, metrics *trackmetrics.Metrics) *Collector {
	return &Collector{registry: registry, interval: interval, log: log, metrics: metrics}
}

// Run blocks, sweeping at the configured cadence until ctx is canceled. The
// shutdown signal is honored only between sweeps, never mid-sweep, so a
// sweep that's already underway always finishes cleanly.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("collector: shutdown signal received, exiting after current sweep")
			return
		case <-ticker.C:
			c.sweepOnce()
		}
	}
}

// sweepOnce visits every registered swarm exactly once and evicts unfresh
// peers from each. Removal during the per-shard iteration is tolerated by
// the swarm's own map (see swarm.Swarm.CollectUnfresh).
func (c *Collector) sweepOnce() {
	swarms := c.registry.Swarms()
	total := 0
	for _, sw := range swarms {
		evicted := sw.CollectUnfresh()
		total += evicted
		if c.metrics != nil && evicted > 0 {
			c.metrics.AddEvictions(float64(evicted))
		}
	}
	if total > 0 {
		c.log.Debug().Int("swarms", len(swarms)).Int("evicted", total).Msg("collector: sweep complete")
	}
}
