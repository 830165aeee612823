// Package health exposes application availability as HTTP liveness and
// readiness probes.
package health

import (
	"time"

	"github.com/GoCodeAlone/bootevents"
)

// AvailabilityReader reports the current availability states.
// *bootevents.AvailabilityTracker implements it.
type AvailabilityReader interface {
	Liveness() bootevents.LivenessState
	Readiness() bootevents.ReadinessState
}

// ProbeResult is the JSON body returned by every probe.
type ProbeResult struct {
	Probe     string    `json:"probe"`
	State     string    `json:"state"`
	Up        bool      `json:"up"`
	CheckedAt time.Time `json:"checkedAt"`
}

// AggregatedResult is the JSON body of the combined health endpoint.
type AggregatedResult struct {
	Up        bool          `json:"up"`
	Probes    []ProbeResult `json:"probes"`
	CheckedAt time.Time     `json:"checkedAt"`
}
