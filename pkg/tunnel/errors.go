package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Sentinel errors returned by the tunnel package.
var (
	// ErrBodyConsumed is returned when a response body accessor is called
	// after the body has already been consumed.
	ErrBodyConsumed = errors.New("response body already consumed")

	// ErrNoProxy is returned when an exchange is attempted without a proxy.
	ErrNoProxy = errors.New("no proxy specified")
)

// Tunnel operation names used in TunnelError.Op.
const (
	OpConnect = "connect"
	OpAuth    = "auth"
	OpTunnel  = "tunnel"
)

// TunnelError represents a transport-level failure while establishing or
// using a SOCKS tunnel. The Op field identifies which stage failed.
type TunnelError struct {
	// Op is the tunnel stage that failed: "connect", "auth", or "tunnel".
	Op string

	// Proxy is the proxy address the tunnel was built through.
	Proxy string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TunnelError) Error() string {
	return fmt.Sprintf("proxy %q %s failed: %v", e.Proxy, e.Op, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TunnelError) Unwrap() error {
	return e.Cause
}

// BodyTooLargeError is returned when a response body exceeds the buffering
// cap. The exchange completed but the body cannot be exposed faithfully.
type BodyTooLargeError struct {
	// Proxy is the proxy address the request was tunneled through.
	Proxy string

	// Limit is the buffering cap in bytes.
	Limit int64
}

// Error implements the error interface.
func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body through proxy %q exceeds %d bytes", e.Proxy, e.Limit)
}

// TimeoutError represents a request that exceeded its time budget while
// tunneled through a proxy.
type TimeoutError struct {
	// Proxy is the proxy address the request was tunneled through.
	Proxy string

	// Timeout is the budget that was exceeded.
	Timeout time.Duration

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request through proxy %q timed out after %s", e.Proxy, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is a timeout. It recognizes TimeoutError,
// context deadline expiry, and net.Error timeouts anywhere in the chain.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
