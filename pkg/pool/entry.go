package pool

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// Descriptor identifies one configured upstream SOCKS proxy. Host and Port
// are required; Username and Password are optional credentials used during
// the tunnel handshake.
type Descriptor struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Address returns the "host:port" form of the descriptor.
func (d Descriptor) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Entry is one configured proxy plus its runtime health state. Entries are
// created once at construction (or when appended from a watched proxy-list
// file) and are never removed; a proxy that fails every probe simply never
// appears in a published live set.
//
// The health monitor is the sole writer of liveness and latency, the
// dispatcher is the sole writer of the dispatch counters. Both go through
// the entry mutex, so concurrent bookkeeping is safe and O(1); no network
// I/O ever happens under the lock.
type Entry struct {
	desc Descriptor

	// order is the position in the original configuration, used as the
	// stable tie-break when sorting the live set by latency.
	order int

	mu                  sync.Mutex
	alive               bool
	latency             time.Duration
	consecutiveFailures int
	lastCheckedAt       time.Time
	lastProbeErr        error
	totalDispatches     int64
	failedDispatches    int64
}

// Descriptor returns the immutable configuration of this entry.
func (e *Entry) Descriptor() Descriptor {
	return e.desc
}

// Address returns the proxy's "host:port" address.
func (e *Entry) Address() string {
	return e.desc.Address()
}

// String implements fmt.Stringer. Credentials are never included.
func (e *Entry) String() string {
	return fmt.Sprintf("proxy(%s)", e.desc.Address())
}

// Alive reports whether the last completed probe classified this proxy as
// reachable.
func (e *Entry) Alive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alive
}

// Latency returns the round-trip time of the last successful probe. The
// second return value is false if the entry has never been successfully
// probed.
func (e *Entry) Latency() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.alive {
		return 0, false
	}
	return e.latency, true
}

// ConsecutiveFailures returns the current failure streak, counting both
// failed probes and failed dispatch attempt sequences. Any success resets
// it.
func (e *Entry) ConsecutiveFailures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.consecutiveFailures
}

// LastCheckedAt returns the time of the last probe attempt, successful or
// not. The zero time means the entry has never been probed.
func (e *Entry) LastCheckedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCheckedAt
}

// LastProbeError returns the error from the most recent failed probe, or nil
// if the last probe succeeded. Kept for diagnostics only; it never affects
// selection beyond the alive flag.
func (e *Entry) LastProbeError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastProbeErr
}

// DispatchStats returns the total and failed dispatch counts for this entry.
func (e *Entry) DispatchStats() (total, failed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalDispatches, e.failedDispatches
}

// recordProbe stores the outcome of one health probe. Failures extend the
// consecutive failure streak; a successful probe resets it.
func (e *Entry) recordProbe(latency time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastCheckedAt = time.Now()
	if err != nil {
		e.alive = false
		e.latency = 0
		e.lastProbeErr = err
		e.consecutiveFailures++
		return
	}
	e.alive = true
	e.latency = latency
	e.lastProbeErr = nil
	e.consecutiveFailures = 0
}

// recordDispatch updates the dispatch counters for one attempt sequence
// outcome through this proxy.
func (e *Entry) recordDispatch(success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.totalDispatches++
	if success {
		e.consecutiveFailures = 0
		return
	}
	e.failedDispatches++
	e.consecutiveFailures++
}
