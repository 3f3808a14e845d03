package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/scope"
)

type call struct {
	op      string
	token   string
	channel string
	message string
	payload string
}

// stubChat records every call and serves canned messages.
type stubChat struct {
	calls    []call
	messages []protocol.ChatMessage
}

func (c *stubChat) SendMessage(_ context.Context, token, channelID, content string) (*protocol.ChatMessage, error) {
	c.calls = append(c.calls, call{op: "send", token: token, channel: channelID, payload: content})

	return &protocol.ChatMessage{ID: "msg-1", ChannelID: channelID, Content: content}, nil
}

func (c *stubChat) UpdateMessage(_ context.Context, token, channelID, messageID, content string) (*protocol.ChatMessage, error) {
	c.calls = append(c.calls, call{op: "update", token: token, channel: channelID, message: messageID, payload: content})

	return &protocol.ChatMessage{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func (c *stubChat) DeleteMessage(_ context.Context, token, channelID, messageID string) error {
	c.calls = append(c.calls, call{op: "delete", token: token, channel: channelID, message: messageID})

	return nil
}

func (c *stubChat) AddReaction(_ context.Context, token, channelID, messageID, emoji string) error {
	c.calls = append(c.calls, call{op: "react", token: token, channel: channelID, message: messageID, payload: emoji})

	return nil
}

func (c *stubChat) ListMessages(_ context.Context, token, channelID string, limit int) ([]protocol.ChatMessage, error) {
	c.calls = append(c.calls, call{op: "list", token: token, channel: channelID})

	return c.messages, nil
}

// stubCredentials serves credentials from a map, (nil, nil) on misses.
type stubCredentials struct {
	creds map[string]*models.Credential
}

func (s *stubCredentials) GetCredential(_ context.Context, id string) (*models.Credential, error) {
	return s.creds[id], nil
}

func execContext(client protocol.ChatClient, creds protocol.CredentialStore, sc *scope.Scope) protocol.ExecutionContext {
	return protocol.ExecutionContext{Scope: sc, Chat: client, Credentials: creds}
}

func TestSendMessage_InlineToken(t *testing.T) {
	client := &stubChat{}
	h, err := newHandler(map[string]any{
		"token":          "bot-token",
		"channel_id":     "ch-1",
		"content":        "deal found: {{title}}",
		"store_variable": "message_id",
	}, opSend)
	require.NoError(t, err)

	sc := scope.New(map[string]any{"title": "TV"})
	_, err = h.Execute(context.Background(), execContext(client, nil, sc))
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "send", client.calls[0].op)
	assert.Equal(t, "bot-token", client.calls[0].token)
	assert.Equal(t, "deal found: TV", client.calls[0].payload)
	assert.Equal(t, "msg-1", sc.Get("message_id"))
}

func TestSendMessage_CredentialToken(t *testing.T) {
	client := &stubChat{}
	creds := &stubCredentials{creds: map[string]*models.Credential{
		"cred-1": {ID: "cred-1", Data: map[string]string{"token": "stored-token"}},
	}}

	h, err := newHandler(map[string]any{
		"credential_id": "cred-1",
		"channel_id":    "ch-1",
		"content":       "hello",
	}, opSend)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), execContext(client, creds, scope.New(nil)))
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "stored-token", client.calls[0].token)
}

func TestSendMessage_MissingCredentialFailsBeforeCall(t *testing.T) {
	client := &stubChat{}
	creds := &stubCredentials{creds: map[string]*models.Credential{}}

	h, err := newHandler(map[string]any{
		"credential_id": "ghost",
		"channel_id":    "ch-1",
		"content":       "hello",
	}, opSend)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), execContext(client, creds, scope.New(nil)))
	assert.Error(t, err)
	assert.Empty(t, client.calls)
}

func TestSendMessage_NoToken(t *testing.T) {
	client := &stubChat{}
	h, err := newHandler(map[string]any{"channel_id": "ch-1", "content": "x"}, opSend)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), execContext(client, nil, scope.New(nil)))
	assert.Error(t, err)
	assert.Empty(t, client.calls)
}

func TestExecute_NoClient(t *testing.T) {
	h, err := newHandler(map[string]any{"token": "t", "channel_id": "ch-1"}, opSend)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), execContext(nil, nil, scope.New(nil)))
	assert.Error(t, err)
}

func TestDeleteAndReact(t *testing.T) {
	client := &stubChat{}

	h, err := newHandler(map[string]any{
		"token": "t", "channel_id": "ch-1", "message_id": "m-9",
	}, opDelete)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), execContext(client, nil, scope.New(nil)))
	require.NoError(t, err)

	h, err = newHandler(map[string]any{
		"token": "t", "channel_id": "ch-1", "message_id": "m-9", "emoji": "🔥",
	}, opReact)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), execContext(client, nil, scope.New(nil)))
	require.NoError(t, err)

	require.Len(t, client.calls, 2)
	assert.Equal(t, "delete", client.calls[0].op)
	assert.Equal(t, "m-9", client.calls[0].message)
	assert.Equal(t, "react", client.calls[1].op)
	assert.Equal(t, "🔥", client.calls[1].payload)
}

func TestListMessages_StoresSummaries(t *testing.T) {
	client := &stubChat{messages: []protocol.ChatMessage{
		{ID: "m-1", Author: "ana", Content: "first"},
		{ID: "m-2", Author: "bo", Content: "second"},
	}}

	h, err := newHandler(map[string]any{
		"token": "t", "channel_id": "ch-1", "store_variable": "history",
	}, opList)
	require.NoError(t, err)

	sc := scope.New(nil)
	out, err := h.Execute(context.Background(), execContext(client, nil, sc))
	require.NoError(t, err)

	assert.Equal(t, 2, out)
	assert.Equal(t, "ana", sc.Get("history[0].author"))
	assert.Equal(t, "second", sc.Get("history[1].content"))
}
