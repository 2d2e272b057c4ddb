package coordtest

import "time"

// Session teardown is asynchronous on real services.
const (
	defaultEventually = 10 * time.Second
	defaultTick       = 50 * time.Millisecond
)
