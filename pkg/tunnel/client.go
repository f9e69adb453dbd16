package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/pool"

	"github.com/Jigsaw-Code/outline-sdk/transport"
	"github.com/Jigsaw-Code/outline-sdk/transport/socks5"
)

// DefaultTimeout bounds an exchange when neither the client nor the
// description sets one.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a response body is buffered.
const maxBodySize = 32 << 20 // 32 MiB

// Client exchanges HTTP requests through upstream SOCKS proxies. Each
// exchange builds a fresh tunnel through the given proxy with keep-alives
// disabled, so no connection state leaks between proxies.
//
// A Client is safe for concurrent use.
type Client struct {
	timeout time.Duration

	// dialContext, when set, replaces the SOCKS tunnel dial. Tests use it
	// to dial the target directly.
	dialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewClient creates a tunnel client. A non-positive timeout selects
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{timeout: timeout}
}

// Exchange sends the described request through the given proxy and returns
// the buffered response. Any HTTP status, including 4xx and 5xx, is a
// successful exchange; errors are reserved for tunnel and timeout failures.
func (c *Client) Exchange(ctx context.Context, proxy pool.Descriptor, desc *Description) (*Response, error) {
	if proxy.Host == "" {
		return nil, ErrNoProxy
	}
	if desc == nil {
		return nil, fmt.Errorf("request description cannot be nil")
	}

	timeout := c.timeout
	if desc.Timeout > 0 {
		timeout = desc.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := desc.build(ctx)
	if err != nil {
		return nil, err
	}

	dial := c.dialContext
	if dial == nil {
		dial, err = proxyDialContext(proxy)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext:       dial,
			DisableKeepAlives: true,
			Proxy:             nil,
		},
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyExchangeError(err, proxy.Address(), timeout)
	}
	defer resp.Body.Close()

	// Read one byte past the cap so an oversized body is detected rather
	// than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, classifyExchangeError(err, proxy.Address(), timeout)
	}
	if int64(len(body)) > maxBodySize {
		return nil, &BodyTooLargeError{Proxy: proxy.Address(), Limit: maxBodySize}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Proxy:      proxy.Address(),
		body:       body,
	}, nil
}

// proxyDialContext builds a DialContext that tunnels every connection
// through the proxy's SOCKS endpoint.
func proxyDialContext(proxy pool.Descriptor) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	dialer, err := socks5.NewClient(&transport.TCPEndpoint{Address: proxy.Address()})
	if err != nil {
		return nil, &TunnelError{Op: OpConnect, Proxy: proxy.Address(), Cause: err}
	}
	if proxy.Username != "" || proxy.Password != "" {
		if err := dialer.SetCredentials([]byte(proxy.Username), []byte(proxy.Password)); err != nil {
			return nil, &TunnelError{Op: OpAuth, Proxy: proxy.Address(), Cause: err}
		}
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !strings.HasPrefix(network, "tcp") {
			return nil, fmt.Errorf("network %q not supported over SOCKS tunnel", network)
		}
		conn, err := dialer.DialStream(ctx, addr)
		if err != nil {
			return nil, &TunnelError{Op: OpConnect, Proxy: proxy.Address(), Cause: err}
		}
		return conn, nil
	}, nil
}

// classifyExchangeError maps a transport failure onto the package's error
// taxonomy. Timeouts become TimeoutError; everything else becomes a
// TunnelError unless the dial already produced one.
func classifyExchangeError(err error, proxyAddr string, timeout time.Duration) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	if IsTimeout(err) {
		return &TimeoutError{Proxy: proxyAddr, Timeout: timeout, Cause: err}
	}

	var tunnelErr *TunnelError
	if errors.As(err, &tunnelErr) {
		return tunnelErr
	}

	return &TunnelError{Op: OpTunnel, Proxy: proxyAddr, Cause: err}
}
