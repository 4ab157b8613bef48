package systems

import "errors"

var (
	// ErrCapacityExceeded is returned when a fixed-size pool has no free slot.
	ErrCapacityExceeded = errors.New("pool capacity exceeded")
	// ErrInvalidEndpoint is returned when a spring references a dead particle.
	ErrInvalidEndpoint = errors.New("spring endpoint is not a live particle")
	// ErrNotLive is returned when releasing a slot that is not in use.
	ErrNotLive = errors.New("slot is not live")
)
