package health

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/ganymede/pkg/pool"
	"mercator-hq/ganymede/pkg/tunnel"
)

// ProbeFunc checks one proxy and returns the observed latency. A nil error
// means the proxy is alive.
type ProbeFunc func(ctx context.Context, proxy pool.Descriptor) (time.Duration, error)

// NewHTTPProbe returns a ProbeFunc that fetches checkURL through the proxy
// using the given tunnel client. The proxy is alive when the fetch
// completes with a 2xx or 3xx status; latency is the full exchange time
// including the tunnel handshake.
func NewHTTPProbe(client *tunnel.Client, checkURL string) ProbeFunc {
	return func(ctx context.Context, proxy pool.Descriptor) (time.Duration, error) {
		start := time.Now()
		resp, err := client.Exchange(ctx, proxy, &tunnel.Description{URL: checkURL})
		if err != nil {
			return 0, err
		}
		if resp.StatusCode >= 400 {
			return 0, fmt.Errorf("check endpoint returned status %d", resp.StatusCode)
		}
		return time.Since(start), nil
	}
}
