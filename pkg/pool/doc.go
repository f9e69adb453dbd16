// Package pool implements the proxy record store: the configured list of
// upstream SOCKS proxies, their runtime health state, and the atomically
// published live-set snapshots the rest of the system routes against.
//
// The store follows a snapshot-replace discipline: the health monitor
// publishes a whole new immutable LiveSet on every pass instead of mutating
// a shared list in place, so the hot dispatch path reads snapshots without
// locks and never observes a torn update.
package pool
