// Ganymede is a SOCKS proxy-pool connection manager.
//
// It maintains a pool of upstream SOCKS proxies, probes them on a fixed
// interval, and dispatches HTTP requests through the fastest live proxies
// with automatic retry and failover.
//
// Usage:
//
//	# Fetch a URL through the pool
//	ganymede fetch https://example.com --proxy 10.0.0.1:1080 --proxy 10.0.0.2:1080
//
//	# List the live proxies with their latencies
//	ganymede proxies --config config.yaml
//
//	# Query the journaled pool events
//	ganymede events --db data/events.db --kind proxy_failed
//
//	# Show version information
//	ganymede version
package main

func main() {
	Execute()
}
