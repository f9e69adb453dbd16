// Package dispatch routes requests through the proxy pool with retry and
// failover.
//
// The Dispatcher selects the current proxy from the rotation selector,
// attempts the tunneled exchange, and classifies every failure as timeout
// or transport. Each class has its own per-proxy retry budget; when both
// chances on a proxy are spent the dispatcher records the failure, rotates
// to the next live proxy, and starts a fresh budget. After the configured
// number of full rotations through the live set the dispatch fails with an
// AllProxiesFailedError carrying the last cause and the attempt count.
//
// A completed exchange is always a dispatch success: HTTP error statuses
// are returned to the caller untouched, because the proxy plumbing worked.
package dispatch
