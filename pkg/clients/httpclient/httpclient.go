// Package httpclient is the default outbound HTTP capability used by the
// generic API-call step.
package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/webpilot-io/webpilot/pkg/protocol"
)

const defaultTimeout = 30 * time.Second

// Client implements protocol.HTTPClient over resty. Transport-level errors
// are returned; non-2xx statuses are not, since the step decides what a
// status means.
type Client struct {
	rest *resty.Client
}

func New() *Client {
	return &Client{rest: resty.New().SetTimeout(defaultTimeout)}
}

func (c *Client) Do(ctx context.Context, req protocol.HTTPRequest) (*protocol.HTTPResponse, error) {
	r := c.rest.R().SetContext(ctx).SetHeaders(req.Headers)
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	headers := make(map[string]string, len(resp.Header()))
	for k := range resp.Header() {
		headers[k] = resp.Header().Get(k)
	}

	return &protocol.HTTPResponse{
		StatusCode: resp.StatusCode(),
		Headers:    headers,
		Body:       string(resp.Body()),
	}, nil
}
