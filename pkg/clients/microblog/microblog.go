// Package microblog implements the micro-blog service capability with
// OAuth 1.0a request signing.
package microblog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/webpilot-io/webpilot/pkg/protocol"
)

const DefaultBaseURL = "https://api.twitter.com/1.1"

// Client implements protocol.MicroblogClient. Every request carries a signed
// Authorization header; a signature mismatch comes back from the provider as
// an authentication error.
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

type postPayload struct {
	IDStr string `json:"id_str"`
	Text  string `json:"text"`
}

func (c *Client) signed(ctx context.Context, creds protocol.MicroblogCredentials, method, endpoint string, params map[string]string) *resty.Request {
	header := authorizationHeader(creds, method, endpoint, params, newNonce(), time.Now())

	return c.rest.R().SetContext(ctx).SetHeader("Authorization", header)
}

func checkStatus(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("micro-blog service returned %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

func (c *Client) Post(ctx context.Context, creds protocol.MicroblogCredentials, text string) (*protocol.MicroblogPost, error) {
	endpoint := c.baseURL + "/statuses/update.json"
	params := map[string]string{"status": text}

	var payload postPayload

	resp, err := c.signed(ctx, creds, "POST", endpoint, params).
		SetFormData(params).
		SetResult(&payload).
		Post(endpoint)
	if err := checkStatus(resp, err); err != nil {
		return nil, err
	}

	return &protocol.MicroblogPost{ID: payload.IDStr, Text: payload.Text}, nil
}

func (c *Client) Delete(ctx context.Context, creds protocol.MicroblogCredentials, postID string) error {
	endpoint := fmt.Sprintf("%s/statuses/destroy/%s.json", c.baseURL, postID)

	resp, err := c.signed(ctx, creds, "POST", endpoint, nil).Post(endpoint)

	return checkStatus(resp, err)
}

func (c *Client) Like(ctx context.Context, creds protocol.MicroblogCredentials, postID string) error {
	endpoint := c.baseURL + "/favorites/create.json"
	params := map[string]string{"id": postID}

	resp, err := c.signed(ctx, creds, "POST", endpoint, params).
		SetFormData(params).
		Post(endpoint)

	return checkStatus(resp, err)
}

func (c *Client) Reshare(ctx context.Context, creds protocol.MicroblogCredentials, postID string) error {
	endpoint := fmt.Sprintf("%s/statuses/retweet/%s.json", c.baseURL, postID)

	resp, err := c.signed(ctx, creds, "POST", endpoint, nil).Post(endpoint)

	return checkStatus(resp, err)
}

func (c *Client) Search(ctx context.Context, creds protocol.MicroblogCredentials, query string, limit int) ([]protocol.MicroblogPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	endpoint := c.baseURL + "/search/tweets.json"
	params := map[string]string{"q": query, "count": strconv.Itoa(limit)}

	var payload struct {
		Statuses []postPayload `json:"statuses"`
	}

	resp, err := c.signed(ctx, creds, "GET", endpoint, params).
		SetQueryParams(params).
		SetResult(&payload).
		Get(endpoint)
	if err := checkStatus(resp, err); err != nil {
		return nil, err
	}

	posts := make([]protocol.MicroblogPost, 0, len(payload.Statuses))
	for _, s := range payload.Statuses {
		posts = append(posts, protocol.MicroblogPost{ID: s.IDStr, Text: s.Text})
	}

	return posts, nil
}

func (c *Client) DirectMessage(ctx context.Context, creds protocol.MicroblogCredentials, recipientID, text string) error {
	endpoint := c.baseURL + "/direct_messages/events/new.json"

	// JSON body parameters are excluded from the signature base string.
	body := map[string]any{
		"event": map[string]any{
			"type": "message_create",
			"message_create": map[string]any{
				"target":       map[string]any{"recipient_id": recipientID},
				"message_data": map[string]any{"text": text},
			},
		},
	}

	resp, err := c.signed(ctx, creds, "POST", endpoint, nil).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)

	return checkStatus(resp, err)
}
