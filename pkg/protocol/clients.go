package protocol

import (
	"context"
	"time"
)

// HTTPRequest is the outbound HTTP capability's input.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// HTTPResponse is the outbound HTTP capability's output.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// HTTPClient performs outbound HTTP calls for the generic API-call step.
type HTTPClient interface {
	Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}

// ChatMessage is one message as returned by the chat service.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatClient is the chat-service messaging capability.
type ChatClient interface {
	SendMessage(ctx context.Context, token, channelID, content string) (*ChatMessage, error)
	UpdateMessage(ctx context.Context, token, channelID, messageID, content string) (*ChatMessage, error)
	DeleteMessage(ctx context.Context, token, channelID, messageID string) error
	AddReaction(ctx context.Context, token, channelID, messageID, emoji string) error
	ListMessages(ctx context.Context, token, channelID string, limit int) ([]ChatMessage, error)
}

// MicroblogCredentials are the four OAuth 1.0a secrets the micro-blog provider
// requires for request signing.
type MicroblogCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// MicroblogPost is one post as returned by the micro-blog service.
type MicroblogPost struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MicroblogClient is the micro-blog service capability. Every call is signed
// per OAuth 1.0a; a signing mismatch surfaces as an authentication error from
// the provider.
type MicroblogClient interface {
	Post(ctx context.Context, creds MicroblogCredentials, text string) (*MicroblogPost, error)
	Delete(ctx context.Context, creds MicroblogCredentials, postID string) error
	Like(ctx context.Context, creds MicroblogCredentials, postID string) error
	Reshare(ctx context.Context, creds MicroblogCredentials, postID string) error
	Search(ctx context.Context, creds MicroblogCredentials, query string, limit int) ([]MicroblogPost, error)
	DirectMessage(ctx context.Context, creds MicroblogCredentials, recipientID, text string) error
}

// CompletionRequest is the AI-completion capability's input. Zero values for
// Temperature, MaxTokens and Timeout select the deterministic defaults.
type CompletionRequest struct {
	APIKey      string
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// CompletionResponse is the AI-completion capability's output.
type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// AIClient calls an AI-completion provider.
type AIClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
