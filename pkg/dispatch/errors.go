package dispatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the dispatch failure modes.
var (
	// ErrNoLiveProxies matches failures where the live set was empty and
	// no attempt was made.
	ErrNoLiveProxies = errors.New("no live proxies available")

	// ErrAllProxiesFailed matches failures where the rotation budget was
	// exhausted without a successful exchange.
	ErrAllProxiesFailed = errors.New("all proxies failed")
)

// NoLiveProxiesError is returned when a dispatch finds the live set empty.
// No network attempt is made in this case.
type NoLiveProxiesError struct {
	// PoolSize is the number of proxies configured in the pool.
	PoolSize int
}

// Error implements the error interface.
func (e *NoLiveProxiesError) Error() string {
	return fmt.Sprintf("no live proxies available (%d configured)", e.PoolSize)
}

// Is reports whether target is ErrNoLiveProxies.
func (e *NoLiveProxiesError) Is(target error) bool {
	return target == ErrNoLiveProxies
}

// AllProxiesFailedError is returned when every rotation through the live
// set failed. It wraps the last underlying attempt error.
type AllProxiesFailedError struct {
	// ProxiesTried is the number of proxies rotated through, counting a
	// proxy once per rotation pass.
	ProxiesTried int

	// Attempts is the total number of individual exchange attempts.
	Attempts int

	// LastErr is the error from the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *AllProxiesFailedError) Error() string {
	return fmt.Sprintf("all proxies failed after %d attempts across %d proxies: %v",
		e.Attempts, e.ProxiesTried, e.LastErr)
}

// Unwrap returns the last underlying attempt error.
func (e *AllProxiesFailedError) Unwrap() error {
	return e.LastErr
}

// Is reports whether target is ErrAllProxiesFailed.
func (e *AllProxiesFailedError) Is(target error) bool {
	return target == ErrAllProxiesFailed
}
