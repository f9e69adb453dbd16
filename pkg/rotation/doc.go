// Package rotation selects proxies from the live set in round-robin order.
//
// The Selector keeps a shared cursor over the latest published live set.
// Current returns the proxy under the cursor and Advance moves it,
// wrapping at the end. Whenever the health monitor publishes a new
// snapshot the cursor is revalidated, so selection never pins a stale set.
package rotation
