package dispatch

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/rotation"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/tunnel"

	"github.com/google/uuid"
)

// Exchanger performs one tunneled exchange through a proxy. It is
// implemented by tunnel.Client; tests substitute mocks.
type Exchanger interface {
	Exchange(ctx context.Context, proxy pool.Descriptor, desc *tunnel.Description) (*tunnel.Response, error)
}

// TokenSource produces correlation tokens. One token is drawn per logical
// request and tagged on every retry it spawns, so downstream logs can be
// grouped. The default source produces UUIDs.
type TokenSource func() string

// Dispatcher drives the failover state machine: select a live proxy,
// attempt the exchange, retry the same proxy within its per-class budget,
// rotate on budget exhaustion, and give up after the configured number of
// full rotations through the live set.
type Dispatcher struct {
	store     *pool.Store
	selector  *rotation.Selector
	exchanger Exchanger
	cfg       config.DispatchConfig
	sink      events.Sink
	metrics   *metrics.Collector
	tokens    TokenSource
	logger    *slog.Logger
}

// Options configures optional dispatcher collaborators.
type Options struct {
	// Sink receives selection, failure, and exhaustion events. Nil
	// selects events.NopSink.
	Sink events.Sink

	// Metrics is the optional metrics collector.
	Metrics *metrics.Collector

	// Tokens overrides the correlation token source.
	Tokens TokenSource
}

// NewDispatcher creates a dispatcher over the store and selector, sending
// attempts through the given exchanger.
func NewDispatcher(store *pool.Store, selector *rotation.Selector, exchanger Exchanger, cfg config.DispatchConfig, opts Options) *Dispatcher {
	sink := opts.Sink
	if sink == nil {
		sink = events.NopSink{}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = uuid.NewString
	}
	return &Dispatcher{
		store:     store,
		selector:  selector,
		exchanger: exchanger,
		cfg:       cfg,
		sink:      sink,
		metrics:   opts.Metrics,
		tokens:    tokens,
		logger:    slog.Default().With("component", "dispatch"),
	}
}

// Dispatch sends the described request through the proxy pool. It suspends
// until the first health pass has published a live set, then walks the
// failover state machine until an exchange completes or the rotation
// budget is exhausted.
//
// Any completed exchange is a success regardless of HTTP status. The error
// is a *NoLiveProxiesError when the live set is empty at entry, or an
// *AllProxiesFailedError wrapping the last attempt failure.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *tunnel.Description) (*tunnel.Response, error) {
	if err := d.store.WaitFirstPublish(ctx); err != nil {
		return nil, err
	}

	attemptDesc := *desc
	if attemptDesc.Timeout <= 0 {
		attemptDesc.Timeout = d.cfg.MaxTimeout
	}

	token := d.tokens()
	start := time.Now()
	state := &dispatchState{token: token}

	resp, err := d.run(ctx, &attemptDesc, state)

	switch {
	case err == nil:
		d.metrics.RecordDispatch(metrics.StatusSuccess, time.Since(start), state.attempts)
	case state.attempts == 0:
		d.metrics.RecordDispatch(metrics.StatusNoLiveProxies, time.Since(start), 0)
	default:
		d.metrics.RecordDispatch(metrics.StatusExhausted, time.Since(start), state.attempts)
	}
	return resp, err
}

// dispatchState carries the counters of one logical request across
// rotations.
type dispatchState struct {
	token        string
	attempts     int
	proxiesTried int
	lastErr      error
}

func (d *Dispatcher) run(ctx context.Context, desc *tunnel.Description, state *dispatchState) (*tunnel.Response, error) {
	for {
		member, err := d.selector.Current()
		if err != nil {
			if state.attempts == 0 {
				return nil, &NoLiveProxiesError{PoolSize: d.store.Len()}
			}
			// The live set drained mid-dispatch.
			return nil, d.exhausted(state)
		}

		resp, rotate := d.attemptProxy(ctx, member.Entry, desc, state)
		if resp != nil {
			return resp, nil
		}
		if !rotate {
			// Context cancelled while attempting.
			return nil, d.exhausted(state)
		}

		d.store.RecordDispatchOutcome(member.Entry, false)
		d.sink.Record(events.KindProxyFailed, map[string]string{
			"proxy": member.Entry.Address(),
			"token": state.token,
			"error": state.lastErr.Error(),
		})
		state.proxiesTried++

		setLen := d.selector.Len()
		if setLen == 0 || state.proxiesTried >= d.cfg.ChangeProxyLoop*setLen {
			return nil, d.exhausted(state)
		}

		d.metrics.RecordRotation()
		d.selector.Advance()
	}
}

// attemptProxy runs the per-proxy attempt sequence: one initial attempt
// plus retries within the timeout and error budgets. It returns the
// response on success, or (nil, true) when the proxy's budgets are spent
// and the dispatcher should rotate. (nil, false) means the context ended.
func (d *Dispatcher) attemptProxy(ctx context.Context, entry *pool.Entry, desc *tunnel.Description, state *dispatchState) (*tunnel.Response, bool) {
	var timeoutRetries, errorRetries int

	for {
		if ctx.Err() != nil {
			if state.lastErr == nil {
				state.lastErr = ctx.Err()
			}
			return nil, false
		}

		state.attempts++
		d.sink.Record(events.KindProxySelected, map[string]string{
			"proxy":   entry.Address(),
			"token":   state.token,
			"attempt": strconv.Itoa(state.attempts),
		})

		resp, err := d.exchanger.Exchange(ctx, entry.Descriptor(), desc)
		if err == nil {
			d.store.RecordDispatchOutcome(entry, true)
			d.metrics.RecordAttempt(metrics.OutcomeSuccess)
			// Move the shared cursor so consecutive requests spread
			// across the live set instead of reusing the same proxy.
			d.selector.Advance()
			return resp, false
		}

		state.lastErr = err
		if tunnel.IsTimeout(err) {
			d.metrics.RecordAttempt(metrics.OutcomeTimeout)
			if timeoutRetries < d.cfg.OnTimeoutRetries {
				timeoutRetries++
				d.logger.Debug("retrying proxy after timeout",
					"proxy", entry.Address(),
					"token", state.token,
					"retry", timeoutRetries,
				)
				continue
			}
		} else {
			d.metrics.RecordAttempt(metrics.OutcomeError)
			if errorRetries < d.cfg.OnErrorRetries {
				errorRetries++
				d.logger.Debug("retrying proxy after error",
					"proxy", entry.Address(),
					"token", state.token,
					"retry", errorRetries,
					"error", err,
				)
				continue
			}
		}

		return nil, true
	}
}

func (d *Dispatcher) exhausted(state *dispatchState) error {
	err := &AllProxiesFailedError{
		ProxiesTried: state.proxiesTried,
		Attempts:     state.attempts,
		LastErr:      state.lastErr,
	}
	d.sink.Record(events.KindDispatchExhausted, map[string]string{
		"token":         state.token,
		"proxies_tried": strconv.Itoa(state.proxiesTried),
		"attempts":      strconv.Itoa(state.attempts),
		"error":         state.lastErr.Error(),
	})
	d.logger.Warn("dispatch exhausted",
		"token", state.token,
		"proxies_tried", state.proxiesTried,
		"attempts", state.attempts,
		"error", state.lastErr,
	)
	return err
}
