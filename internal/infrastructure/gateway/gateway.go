// Package gateway executes single outbound HTTP requests against TPA hosts.
// It deliberately carries no timeout (several TPA endpoints take minutes to
// assemble a hospital directory), no retries, and no response parsing: every
// adapter applies its own guard-prefix handling and JSON decoding to the raw
// body text.
package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Gateway is the shared outbound HTTP executor used by every TPA adapter and
// token provider.
type Gateway struct {
	client *http.Client
}

// New creates a gateway. The underlying client follows redirects and has no
// timeout; cancellation comes from the request context.
func New() *Gateway {
	return &Gateway{client: &http.Client{}}
}

// NewWithClient creates a gateway around an existing http.Client.
func NewWithClient(client *http.Client) *Gateway {
	return &Gateway{client: client}
}

// Do executes the request and returns the raw response body as text. A
// transport failure returns an empty body and the error; callers treat that
// as "no data" for the current policy or page.
func (g *Gateway) Do(ctx context.Context, req Request) (string, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return "", err
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}
