package instance

import "time"

// Metrics records lifecycle operations. A nil Metrics disables recording.
type Metrics interface {
	// ObserveOperation records one admin operation and its outcome code
	// ("ok" or an error code name).
	ObserveOperation(op, result string, d time.Duration)

	// SetLeaderLive records the last observed leader liveness.
	SetLeaderLive(live bool)
}
