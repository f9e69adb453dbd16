// Package events defines the observability event sink consumed by the proxy
// pool and an optional asynchronous journal behind it.
//
// The manager records proxy selection, proxy failure, probe results, and
// health-tick completion through the Sink interface. A NopSink can be
// substituted with no behavior change; the Recorder journals events to a
// memory or SQLite backend without ever blocking the dispatch path.
package events
