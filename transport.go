package refetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Response carries the transport-level outcome of a completed call: status,
// headers and the fully read body. Bodies are held as bytes so a cached
// response can be decoded independently by every orchestrator that reuses it.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ContentType returns the declared content type, lowercased with parameters
// stripped, or the empty string when nothing was declared.
func (r *Response) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Transport performs one request and returns the completed response.
// Implementations must read the body to completion; connection management,
// TLS and socket-level retries are their concern, not the orchestrator's.
type Transport func(ctx context.Context, req RequestDescriptor) (*Response, error)

// DefaultTransport issues the request over http.DefaultClient.
func DefaultTransport(ctx context.Context, req RequestDescriptor) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	hr, err := http.NewRequestWithContext(ctx, method, req.Target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close after full read

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// StatusError reports a non-2xx response observed in strict-status mode.
// Payload carries the decoded body when decoding succeeded, so callers can
// still inspect error-shaped server responses.
type StatusError struct {
	Status  int
	Payload any
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}
