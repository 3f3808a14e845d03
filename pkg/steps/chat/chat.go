// Package chat implements the chat-service messaging step handlers. The
// bot token comes from an inline field or a credential reference; a missing
// token fails the node before any network call.
package chat

import (
	"context"
	"fmt"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

// Factories returns the factory for every chat step type.
func Factories() []protocol.StepFactory {
	return []protocol.StepFactory{
		steps.NewFactory("chatSendMessage",
			chatSchema([]string{"channel_id", "content"}, map[string]any{
				"channel_id":     steps.StringProp(),
				"content":        steps.StringProp(),
				"store_variable": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newHandler(config, opSend) }),
		steps.NewFactory("chatUpdateMessage",
			chatSchema([]string{"channel_id", "message_id", "content"}, map[string]any{
				"channel_id": steps.StringProp(),
				"message_id": steps.StringProp(),
				"content":    steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newHandler(config, opUpdate) }),
		steps.NewFactory("chatDeleteMessage",
			chatSchema([]string{"channel_id", "message_id"}, map[string]any{
				"channel_id": steps.StringProp(),
				"message_id": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newHandler(config, opDelete) }),
		steps.NewFactory("chatAddReaction",
			chatSchema([]string{"channel_id", "message_id", "emoji"}, map[string]any{
				"channel_id": steps.StringProp(),
				"message_id": steps.StringProp(),
				"emoji":      steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newHandler(config, opReact) }),
		steps.NewFactory("chatListMessages",
			chatSchema([]string{"channel_id"}, map[string]any{
				"channel_id":     steps.StringProp(),
				"limit":          steps.NumberProp(),
				"store_variable": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newHandler(config, opList) }),
	}
}

func chatSchema(required []string, props map[string]any) map[string]any {
	props["token"] = steps.StringProp()
	props["credential_id"] = steps.StringProp()

	return steps.ObjectSchema(required, props)
}

type operation int

const (
	opSend operation = iota
	opUpdate
	opDelete
	opReact
	opList
)

type handler struct {
	op     operation
	config map[string]any
}

func newHandler(config map[string]any, op operation) (*handler, error) {
	return &handler{op: op, config: config}, nil
}

func (h *handler) token(ctx context.Context, execCtx protocol.ExecutionContext) (string, error) {
	cred, err := steps.ResolveCredential(ctx, execCtx, h.config)
	if err != nil {
		return "", err
	}

	token := cred.Get("token")
	if token == "" {
		token = steps.String(h.config, "token")
	}

	if token == "" {
		return "", fmt.Errorf("chat step has no token and no credential_id: %w", steps.ErrCredentialNotFound)
	}

	return token, nil
}

func (h *handler) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	if execCtx.Chat == nil {
		return nil, protocol.MissingCapability("chat client")
	}

	token, err := h.token(ctx, execCtx)
	if err != nil {
		return nil, err
	}

	sub := execCtx.Scope.Substitute
	channelID := sub(steps.String(h.config, "channel_id"))
	messageID := sub(steps.String(h.config, "message_id"))

	switch h.op {
	case opSend:
		msg, err := execCtx.Chat.SendMessage(ctx, token, channelID, sub(steps.String(h.config, "content")))
		if err != nil {
			return nil, fmt.Errorf("send chat message: %w", err)
		}

		if key := steps.StoreKey(h.config); key != "" {
			execCtx.Scope.SetValue(key, msg.ID)
		}

		return msg, nil
	case opUpdate:
		msg, err := execCtx.Chat.UpdateMessage(ctx, token, channelID, messageID, sub(steps.String(h.config, "content")))
		if err != nil {
			return nil, fmt.Errorf("update chat message: %w", err)
		}

		return msg, nil
	case opDelete:
		if err := execCtx.Chat.DeleteMessage(ctx, token, channelID, messageID); err != nil {
			return nil, fmt.Errorf("delete chat message: %w", err)
		}

		return nil, nil
	case opReact:
		if err := execCtx.Chat.AddReaction(ctx, token, channelID, messageID, steps.String(h.config, "emoji")); err != nil {
			return nil, fmt.Errorf("add chat reaction: %w", err)
		}

		return nil, nil
	case opList:
		messages, err := execCtx.Chat.ListMessages(ctx, token, channelID, steps.Int(h.config, "limit", 50))
		if err != nil {
			return nil, fmt.Errorf("list chat messages: %w", err)
		}

		if key := steps.StoreKey(h.config); key != "" {
			contents := make([]any, 0, len(messages))
			for _, m := range messages {
				contents = append(contents, map[string]any{"id": m.ID, "author": m.Author, "content": m.Content})
			}

			execCtx.Scope.SetValue(key, contents)
		}

		return len(messages), nil
	default:
		return nil, fmt.Errorf("unknown chat operation %d", h.op)
	}
}
