// Package httpcall implements the generic outbound API-call step with a
// bounded retry-with-fixed-delay policy.
package httpcall

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/scope"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

// Factory returns the apiCall step factory.
func Factory() protocol.StepFactory {
	return steps.NewFactory("apiCall",
		steps.ObjectSchema([]string{"url"}, map[string]any{
			"url":             steps.StringProp(),
			"method":          steps.StringProp(),
			"body":            steps.StringProp(),
			"headers":         map[string]any{"type": "object"},
			"store_variable":  steps.StringProp(),
			"status_variable": steps.StringProp(),
			"retry": steps.ObjectSchema(nil, map[string]any{
				"attempts": steps.NumberProp(),
				"delay_ms": steps.NumberProp(),
			}),
		}),
		func(config map[string]any) (protocol.StepHandler, error) { return New(config) },
	)
}

// RetryConfig bounds the retry policy: fixed delay, fixed attempt count.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Handler performs one templated HTTP call per execution.
type Handler struct {
	Method    string
	URL       string
	Headers   map[string]string
	Body      string
	Retry     RetryConfig
	storeKey  string
	statusKey string
}

// New builds an apiCall handler from raw configuration.
func New(config map[string]any) (*Handler, error) {
	url, err := steps.Require(config, "url")
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(steps.String(config, "method"))
	if method == "" {
		method = http.MethodGet
	}

	headers := make(map[string]string)

	if raw, ok := config["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	retry := RetryConfig{Attempts: 1}

	if raw, ok := config["retry"].(map[string]any); ok {
		retry.Attempts = steps.Int(raw, "attempts", 1)
		retry.Delay = time.Duration(steps.Int(raw, "delay_ms", 0)) * time.Millisecond
	}

	if retry.Attempts < 1 {
		retry.Attempts = 1
	}

	return &Handler{
		Method:    method,
		URL:       url,
		Headers:   headers,
		Body:      steps.String(config, "body"),
		Retry:     retry,
		storeKey:  steps.StoreKey(config),
		statusKey: steps.String(config, "status_variable"),
	}, nil
}

// Execute resolves every templated field, performs the call with retries on
// transport errors and 5xx responses, and stores the parsed body and status
// code when the step configured keys for them.
func (h *Handler) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	if execCtx.HTTP == nil {
		return nil, protocol.MissingCapability("http client")
	}

	req := protocol.HTTPRequest{
		Method:  h.Method,
		URL:     execCtx.Scope.Substitute(h.URL),
		Headers: make(map[string]string, len(h.Headers)),
		Body:    execCtx.Scope.Substitute(h.Body),
	}
	for k, v := range h.Headers {
		req.Headers[k] = execCtx.Scope.Substitute(v)
	}

	var (
		resp    *protocol.HTTPResponse
		lastErr error
	)

	for attempt := 1; attempt <= h.Retry.Attempts; attempt++ {
		if attempt > 1 {
			execCtx.Logger.InfoContext(ctx, "retrying api call",
				"attempt", attempt, "of", h.Retry.Attempts, "url", req.URL)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.Retry.Delay):
			}
		}

		resp, lastErr = execCtx.HTTP.Do(ctx, req)
		if lastErr != nil {
			lastErr = fmt.Errorf("http request failed: %w", lastErr)

			continue
		}

		if resp.StatusCode >= 500 && attempt < h.Retry.Attempts {
			lastErr = fmt.Errorf("server error (status %d): %w", resp.StatusCode, ErrServerError)
			resp = nil

			continue
		}

		break
	}

	if resp == nil {
		return nil, fmt.Errorf("all %d attempts failed, last error: %w", h.Retry.Attempts, lastErr)
	}

	if h.statusKey != "" {
		execCtx.Scope.SetValue(h.statusKey, resp.StatusCode)
	}

	body := scope.ParseValue(resp.Body)
	if h.storeKey != "" {
		execCtx.Scope.SetValue(h.storeKey, body)
	}

	return map[string]any{"status": resp.StatusCode, "body": body}, nil
}

// ErrServerError is returned when the server answers a retryable 5xx status.
var ErrServerError = fmt.Errorf("server error during http request")
