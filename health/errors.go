package health

import "errors"

var (
	// ErrCheckFailed wraps a probe that completed and found its target
	// unhealthy, such as a store round trip losing the probe entry.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout reports that the aggregator's per-check budget
	// elapsed before the checker returned.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound reports that no checker is registered under the
	// requested name.
	ErrCheckerNotFound = errors.New("health: no checker with that name")
)
