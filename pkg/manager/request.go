package manager

import (
	"fmt"
	"net/url"
	"time"

	"mercator-hq/ganymede/pkg/tunnel"
)

// RequestOptions carries the optional parts of a request when the target
// is given as a bare URL string. The fields mirror tunnel.Description.
type RequestOptions struct {
	// Method is the HTTP method. Default: "GET" without a body, "POST"
	// with one.
	Method string

	// Header carries request headers. Accepted types: http.Header,
	// map[string]string, and map[string][]string.
	Header any

	// JSON, when non-nil, is encoded as the JSON request body.
	JSON any

	// Files, when non-empty, is encoded as a multipart/form-data body.
	Files map[string]tunnel.File

	// Form, when non-nil, is encoded as a form-urlencoded body.
	Form url.Values

	// Body is a raw request body: string, []byte, or io.Reader.
	Body any

	// Timeout overrides the configured per-attempt deadline.
	Timeout time.Duration
}

// resolveDescription normalizes the URL-or-description call shape into one
// canonical tunnel.Description.
func resolveDescription(target any, opts *RequestOptions) (*tunnel.Description, error) {
	switch t := target.(type) {
	case string:
		if t == "" {
			return nil, fmt.Errorf("request URL cannot be empty")
		}
		desc := &tunnel.Description{URL: t}
		if opts != nil {
			desc.Method = opts.Method
			desc.Header = opts.Header
			desc.JSON = opts.JSON
			desc.Files = opts.Files
			desc.Form = opts.Form
			desc.Body = opts.Body
			desc.Timeout = opts.Timeout
		}
		return desc, nil

	case *tunnel.Description:
		if t == nil {
			return nil, fmt.Errorf("request description cannot be nil")
		}
		if opts != nil {
			return nil, fmt.Errorf("options must be nil when a full description is given")
		}
		return t, nil

	case tunnel.Description:
		if opts != nil {
			return nil, fmt.Errorf("options must be nil when a full description is given")
		}
		return &t, nil

	default:
		return nil, fmt.Errorf("unsupported request target type %T", target)
	}
}
