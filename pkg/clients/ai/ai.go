// Package ai implements the AI-completion capability against an
// OpenAI-compatible chat-completions endpoint.
package ai

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/webpilot-io/webpilot/pkg/protocol"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Client implements protocol.AIClient. Requests never stream and never use
// tools; the step layer supplies the deterministic defaults.
type Client struct {
	rest    *resty.Client
	baseURL string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{rest: resty.New(), baseURL: baseURL}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type completionResult struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Complete(ctx context.Context, req protocol.CompletionRequest) (*protocol.CompletionResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)

		defer cancel()
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}

	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	var result completionResult

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+req.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(completionPayload{
			Model:       req.Model,
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			Stream:      false,
		}).
		SetResult(&result).
		SetError(&result).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}

	if resp.IsError() {
		if result.Error != nil {
			return nil, fmt.Errorf("completion provider returned %d: %s", resp.StatusCode(), result.Error.Message)
		}

		return nil, fmt.Errorf("completion provider returned %d", resp.StatusCode())
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("completion provider returned no choices")
	}

	return &protocol.CompletionResponse{
		Text:         result.Choices[0].Message.Content,
		Model:        result.Model,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}, nil
}
