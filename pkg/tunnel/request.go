package tunnel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Description describes one HTTP request to be tunneled through a proxy.
// Only URL is required. The body is resolved from exactly one of JSON,
// Files, Form, or Body, checked in that order.
type Description struct {
	// URL is the absolute target URL.
	URL string

	// Method is the HTTP method. Default: "GET" without a body,
	// "POST" with one.
	Method string

	// Header carries request headers. Accepted types: http.Header,
	// map[string]string, and map[string][]string.
	Header any

	// JSON, when non-nil, is encoded as the JSON request body and sets
	// Content-Type: application/json.
	JSON any

	// Files, when non-empty, is encoded as a multipart/form-data body.
	// Map keys are form field names.
	Files map[string]File

	// Form, when non-nil, is encoded as an
	// application/x-www-form-urlencoded body.
	Form url.Values

	// Body is a raw request body. Accepted types: string, []byte,
	// and io.Reader. An io.Reader is buffered in full on first use so
	// the body survives retries.
	Body any

	// Timeout overrides the client's per-attempt timeout when positive.
	Timeout time.Duration
}

// File is one multipart upload in a Description.
type File struct {
	// Name is the filename reported in the multipart header.
	Name string

	// Content is the file content.
	Content []byte

	// ContentType sets the part's Content-Type when non-empty.
	ContentType string
}

// build resolves the description into an *http.Request.
func (d *Description) build(ctx context.Context) (*http.Request, error) {
	if d.URL == "" {
		return nil, fmt.Errorf("request URL cannot be empty")
	}

	body, contentType, err := d.buildBody()
	if err != nil {
		return nil, err
	}

	method := d.Method
	if method == "" {
		if body != nil {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}

	var reader io.Reader
	if body != nil {
		reader = body
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), d.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	header, err := normalizeHeader(d.Header)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		req.Header[http.CanonicalHeaderKey(key)] = values
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// buildBody resolves the body union. The first populated source wins:
// JSON, then Files, then Form, then Body.
func (d *Description) buildBody() (io.Reader, string, error) {
	switch {
	case d.JSON != nil:
		encoded, err := json.Marshal(d.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode JSON body: %w", err)
		}
		return bytes.NewReader(encoded), "application/json", nil

	case len(d.Files) > 0:
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for field, file := range d.Files {
			part, err := createFilePart(writer, field, file)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(file.Content); err != nil {
				return nil, "", fmt.Errorf("failed to write multipart field %q: %w", field, err)
			}
		}
		if err := writer.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
		}
		return &buf, writer.FormDataContentType(), nil

	case d.Form != nil:
		return strings.NewReader(d.Form.Encode()), "application/x-www-form-urlencoded", nil

	case d.Body != nil:
		switch body := d.Body.(type) {
		case string:
			return strings.NewReader(body), "", nil
		case []byte:
			return bytes.NewReader(body), "", nil
		case io.Reader:
			// Buffered once so a later attempt against another proxy
			// sends the same bytes instead of a drained reader.
			data, err := io.ReadAll(body)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read request body: %w", err)
			}
			d.Body = data
			return bytes.NewReader(data), "", nil
		default:
			return nil, "", fmt.Errorf("unsupported body type %T", d.Body)
		}
	}

	return nil, "", nil
}

func createFilePart(writer *multipart.Writer, field string, file File) (io.Writer, error) {
	name := file.Name
	if name == "" {
		name = field
	}

	if file.ContentType == "" {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart field %q: %w", field, err)
		}
		return part, nil
	}

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name),
	}
	header["Content-Type"] = []string{file.ContentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field %q: %w", field, err)
	}
	return part, nil
}

// normalizeHeader converts the accepted header representations into an
// http.Header. A nil input yields an empty header.
func normalizeHeader(header any) (http.Header, error) {
	switch h := header.(type) {
	case nil:
		return http.Header{}, nil
	case http.Header:
		return h, nil
	case map[string][]string:
		return http.Header(h), nil
	case map[string]string:
		out := make(http.Header, len(h))
		for key, value := range h {
			out.Set(key, value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported header type %T", header)
	}
}
