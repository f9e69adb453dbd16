// Package health maintains the live set by probing every configured proxy
// on a fixed interval.
//
// Each pass issues one probe per proxy concurrently, bounded by the
// per-probe timeout, waits for every probe to settle, and then publishes a
// latency-sorted live set to the store. The first pass starts as soon as
// the monitor runs, so the first live set appears without waiting a full
// interval. A proxy that fails its probe stays registered and is probed
// again on the next pass; it simply does not appear in the published set.
package health
