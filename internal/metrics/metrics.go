// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels for remote calls.
const (
	OutcomeSuccess = "success"
	OutcomeNetwork = "network_error"
	OutcomeServer  = "server_error"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// User API metrics
	IncUsersListed()
	IncUserCreated()
	IncUserUpdated()
	IncUserDeleted()

	// List cache metrics
	IncListCacheHit()
	IncListCacheMiss()

	// Console remote client metrics
	ObserveRemoteCall(op, outcome string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
