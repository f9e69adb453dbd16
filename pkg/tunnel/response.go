package tunnel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Response is the buffered result of a tunneled request. The body is read
// in full at exchange time so the underlying tunnel connection is released
// immediately.
//
// The body accessors consume the body: after the first call to Bytes, Text,
// or JSON, further accessor calls return ErrBodyConsumed. Status, Header,
// and Proxy are always readable.
type Response struct {
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int

	// Status is the HTTP status line, e.g. "200 OK".
	Status string

	// Header holds the response headers.
	Header http.Header

	// Proxy is the address of the proxy the request was tunneled through.
	Proxy string

	mu       sync.Mutex
	body     []byte
	consumed bool
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentLength returns the length of the buffered body. It does not
// consume the body.
func (r *Response) ContentLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.body)
}

// Bytes consumes the body and returns it.
func (r *Response) Bytes() ([]byte, error) {
	return r.consume()
}

// Text consumes the body and returns it as a string.
func (r *Response) Text() (string, error) {
	body, err := r.consume()
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// JSON consumes the body and decodes it into v.
func (r *Response) JSON(v any) error {
	body, err := r.consume()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (r *Response) consume() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.consumed {
		return nil, ErrBodyConsumed
	}
	r.consumed = true
	body := r.body
	r.body = nil
	return body, nil
}
