// Package config decodes the tracker's runtime configuration. The core
// doesn't own file or environment loading (that's external, like the HTTP
// server and UDP listener) but it does own validating whatever untyped map
// that loader hands it -- mapstructure is the pack's chosen way to do that
// (sot-tech/mochi wires the same library for its own config layer).
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"bttracker/internal/swarm"
	"bttracker/internal/trackerr"
)

// Tracker holds the tunables that govern swarm behavior.
type Tracker struct {
	AnswerPeers                int `mapstructure:"answer_peers"`
	AnnounceIntervalSeconds    int `mapstructure:"announce_interval_seconds"`
	MinAnnounceIntervalSeconds int `mapstructure:"min_announce_interval_seconds"`
	CollectorIntervalSeconds   int `mapstructure:"collector_interval_seconds"`
}

// Default returns the tracker's built-in defaults.
func Default() Tracker {
	return Tracker{
		AnswerPeers:                swarm.DefaultAnswerPeers,
		AnnounceIntervalSeconds:    swarm.DefaultAnnounceIntervalSeconds,
		MinAnnounceIntervalSeconds: swarm.MinAnnounceIntervalSeconds,
		CollectorIntervalSeconds:   swarm.DefaultAnnounceIntervalSeconds,
	}
}

// Decode merges raw (as would arrive from a YAML/env loader external to
// this core) over the defaults and validates the result.
func Decode(raw map[string]interface{}) (Tracker, error) {
	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      false,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Tracker{}, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Tracker{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Tracker{}, err
	}
	return cfg, nil
}

// Validate fails loudly on a configuration error, per spec.md §7: these are
// startup failures, not per-request ones.
func (c Tracker) Validate() error {
	if c.AnnounceIntervalSeconds < swarm.MinAnnounceIntervalSeconds {
		return trackerr.New(trackerr.KindInvalidInterval,
			fmt.Sprintf("announce_interval_seconds must be >= %d", swarm.MinAnnounceIntervalSeconds))
	}
	if c.AnswerPeers <= 0 {
		return trackerr.New(trackerr.KindInvalidInterval, "answer_peers must be positive")
	}
	if c.CollectorIntervalSeconds <= 0 {
		return trackerr.New(trackerr.KindInvalidInterval, "collector_interval_seconds must be positive")
	}
	return nil
}
