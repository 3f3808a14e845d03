// Package chat implements the chat-service capability against a
// Discord-compatible REST API.
package chat

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/webpilot-io/webpilot/pkg/protocol"
)

const DefaultBaseURL = "https://discord.com/api/v10"

// Client implements protocol.ChatClient.
type Client struct {
	rest    *resty.Client
	baseURL string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		rest:    resty.New().SetTimeout(30 * time.Second),
		baseURL: baseURL,
	}
}

type messagePayload struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    struct {
		Username string `json:"username"`
	} `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *messagePayload) toMessage() *protocol.ChatMessage {
	return &protocol.ChatMessage{
		ID:        p.ID,
		ChannelID: p.ChannelID,
		Author:    p.Author.Username,
		Content:   p.Content,
		Timestamp: p.Timestamp,
	}
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	return c.rest.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bot "+token).
		SetHeader("Content-Type", "application/json")
}

func checkStatus(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("chat service returned %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

func (c *Client) SendMessage(ctx context.Context, token, channelID, content string) (*protocol.ChatMessage, error) {
	var payload messagePayload

	resp, err := c.request(ctx, token).
		SetBody(map[string]string{"content": content}).
		SetResult(&payload).
		Post(fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID))
	if err := checkStatus(resp, err); err != nil {
		return nil, err
	}

	return payload.toMessage(), nil
}

func (c *Client) UpdateMessage(ctx context.Context, token, channelID, messageID, content string) (*protocol.ChatMessage, error) {
	var payload messagePayload

	resp, err := c.request(ctx, token).
		SetBody(map[string]string{"content": content}).
		SetResult(&payload).
		Patch(fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, channelID, messageID))
	if err := checkStatus(resp, err); err != nil {
		return nil, err
	}

	return payload.toMessage(), nil
}

func (c *Client) DeleteMessage(ctx context.Context, token, channelID, messageID string) error {
	resp, err := c.request(ctx, token).
		Delete(fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, channelID, messageID))

	return checkStatus(resp, err)
}

func (c *Client) AddReaction(ctx context.Context, token, channelID, messageID, emoji string) error {
	resp, err := c.request(ctx, token).
		Put(fmt.Sprintf("%s/channels/%s/messages/%s/reactions/%s/@me",
			c.baseURL, channelID, messageID, url.PathEscape(emoji)))

	return checkStatus(resp, err)
}

func (c *Client) ListMessages(ctx context.Context, token, channelID string, limit int) ([]protocol.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var payloads []messagePayload

	resp, err := c.request(ctx, token).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&payloads).
		Get(fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID))
	if err := checkStatus(resp, err); err != nil {
		return nil, err
	}

	messages := make([]protocol.ChatMessage, 0, len(payloads))
	for i := range payloads {
		messages = append(messages, *payloads[i].toMessage())
	}

	return messages, nil
}
