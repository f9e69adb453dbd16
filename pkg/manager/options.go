package manager

import (
	"mercator-hq/ganymede/pkg/dispatch"
	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/health"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// Option customizes a manager's collaborators. Options exist so callers
// and tests can substitute the pieces that touch the network or produce
// side effects; none of them change dispatch behavior.
type Option func(*managerOptions)

type managerOptions struct {
	sink      events.Sink
	tokens    dispatch.TokenSource
	probe     health.ProbeFunc
	exchanger dispatch.Exchanger
	metrics   *metrics.Collector
}

func applyOptions(opts []Option) *managerOptions {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithEventSink replaces the configured sink chain with the given sink.
// It takes precedence over the events and logging configuration.
func WithEventSink(sink events.Sink) Option {
	return func(o *managerOptions) { o.sink = sink }
}

// WithTokenSource replaces the correlation token source used to tag
// retries belonging to one logical request.
func WithTokenSource(tokens dispatch.TokenSource) Option {
	return func(o *managerOptions) { o.tokens = tokens }
}

// WithProbe replaces the health probe. The default probe issues a
// tunneled request to the configured check URL.
func WithProbe(probe health.ProbeFunc) Option {
	return func(o *managerOptions) { o.probe = probe }
}

// WithExchanger replaces the transport used for dispatched requests. The
// default exchanger tunnels through the selected SOCKS proxy.
func WithExchanger(exchanger dispatch.Exchanger) Option {
	return func(o *managerOptions) { o.exchanger = exchanger }
}

// WithMetrics installs a pre-built metrics collector, overriding the
// telemetry configuration.
func WithMetrics(collector *metrics.Collector) Option {
	return func(o *managerOptions) { o.metrics = collector }
}
