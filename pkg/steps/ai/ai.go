// Package ai implements the AI-completion step. Requests are deterministic by
// default: temperature 0, bounded max tokens, clamped timeout, no streaming.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
	maxMaxTokens     = 4096
	minTimeout       = time.Second
	maxTimeout       = 120 * time.Second
	defaultTimeout   = 30 * time.Second
)

// Factory returns the aiCompletion step factory.
func Factory() protocol.StepFactory {
	return steps.NewFactory("aiCompletion",
		steps.ObjectSchema([]string{"prompt"}, map[string]any{
			"prompt":         steps.StringProp(),
			"system":         steps.StringProp(),
			"model":          steps.StringProp(),
			"temperature":    steps.NumberProp(),
			"max_tokens":     steps.NumberProp(),
			"timeout_ms":     steps.NumberProp(),
			"api_key":        steps.StringProp(),
			"credential_id":  steps.StringProp(),
			"store_variable": steps.StringProp(),
		}),
		func(config map[string]any) (protocol.StepHandler, error) { return newCompletion(config) },
	)
}

type completion struct {
	prompt      string
	system      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	config      map[string]any
	storeKey    string
}

func newCompletion(config map[string]any) (*completion, error) {
	prompt, err := steps.Require(config, "prompt")
	if err != nil {
		return nil, err
	}

	model := steps.String(config, "model")
	if model == "" {
		model = defaultModel
	}

	maxTokens := steps.Int(config, "max_tokens", defaultMaxTokens)
	if maxTokens < 1 {
		maxTokens = 1
	} else if maxTokens > maxMaxTokens {
		maxTokens = maxMaxTokens
	}

	timeout := defaultTimeout
	if ms := steps.Int(config, "timeout_ms", 0); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
		if timeout < minTimeout {
			timeout = minTimeout
		} else if timeout > maxTimeout {
			timeout = maxTimeout
		}
	}

	return &completion{
		prompt:      prompt,
		system:      steps.String(config, "system"),
		model:       model,
		temperature: steps.Float(config, "temperature", 0),
		maxTokens:   maxTokens,
		timeout:     timeout,
		config:      config,
		storeKey:    steps.StoreKey(config),
	}, nil
}

func (h *completion) apiKey(ctx context.Context, execCtx protocol.ExecutionContext) (string, error) {
	cred, err := steps.ResolveCredential(ctx, execCtx, h.config)
	if err != nil {
		return "", err
	}

	key := cred.Get("api_key")
	if key == "" {
		key = steps.String(h.config, "api_key")
	}

	if key == "" {
		return "", fmt.Errorf("ai completion step has no api key: %w", steps.ErrCredentialNotFound)
	}

	return key, nil
}

func (h *completion) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	if execCtx.AI == nil {
		return nil, protocol.MissingCapability("ai completion client")
	}

	key, err := h.apiKey(ctx, execCtx)
	if err != nil {
		return nil, err
	}

	resp, err := execCtx.AI.Complete(ctx, protocol.CompletionRequest{
		APIKey:      key,
		Model:       h.model,
		System:      execCtx.Scope.Substitute(h.system),
		Prompt:      execCtx.Scope.Substitute(h.prompt),
		Temperature: h.temperature,
		MaxTokens:   h.maxTokens,
		Timeout:     h.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ai completion: %w", err)
	}

	if h.storeKey != "" {
		execCtx.Scope.Set(h.storeKey, resp.Text)
	}

	return resp.Text, nil
}
