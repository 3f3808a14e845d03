// Package microblog implements the micro-blog service step handlers. The
// four OAuth 1.0a secrets come from a credential reference or inline fields;
// any missing secret fails the node before the signed request is built.
package microblog

import (
	"context"
	"fmt"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

// Factories returns the factory for every micro-blog step type.
func Factories() []protocol.StepFactory {
	return []protocol.StepFactory{
		steps.NewFactory("microblogPost",
			blogSchema([]string{"text"}, map[string]any{
				"text":           steps.StringProp(),
				"store_variable": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return &handler{op: opPost, config: config}, nil }),
		steps.NewFactory("microblogDelete",
			blogSchema([]string{"post_id"}, map[string]any{"post_id": steps.StringProp()}),
			func(config map[string]any) (protocol.StepHandler, error) { return &handler{op: opDelete, config: config}, nil }),
		steps.NewFactory("microblogLike",
			blogSchema([]string{"post_id"}, map[string]any{"post_id": steps.StringProp()}),
			func(config map[string]any) (protocol.StepHandler, error) { return &handler{op: opLike, config: config}, nil }),
		steps.NewFactory("microblogReshare",
			blogSchema([]string{"post_id"}, map[string]any{"post_id": steps.StringProp()}),
			func(config map[string]any) (protocol.StepHandler, error) { return &handler{op: opReshare, config: config}, nil }),
		steps.NewFactory("microblogSearch",
			blogSchema([]string{"query"}, map[string]any{
				"query":          steps.StringProp(),
				"limit":          steps.NumberProp(),
				"store_variable": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return &handler{op: opSearch, config: config}, nil }),
		steps.NewFactory("microblogDM",
			blogSchema([]string{"recipient_id", "text"}, map[string]any{
				"recipient_id": steps.StringProp(),
				"text":         steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return &handler{op: opDM, config: config}, nil }),
	}
}

func blogSchema(required []string, props map[string]any) map[string]any {
	props["credential_id"] = steps.StringProp()
	props["consumer_key"] = steps.StringProp()
	props["consumer_secret"] = steps.StringProp()
	props["access_token"] = steps.StringProp()
	props["access_secret"] = steps.StringProp()

	return steps.ObjectSchema(required, props)
}

type operation int

const (
	opPost operation = iota
	opDelete
	opLike
	opReshare
	opSearch
	opDM
)

type handler struct {
	op     operation
	config map[string]any
}

func (h *handler) credentials(ctx context.Context, execCtx protocol.ExecutionContext) (protocol.MicroblogCredentials, error) {
	cred, err := steps.ResolveCredential(ctx, execCtx, h.config)
	if err != nil {
		return protocol.MicroblogCredentials{}, err
	}

	pick := func(field string) string {
		if v := cred.Get(field); v != "" {
			return v
		}

		return steps.String(h.config, field)
	}

	creds := protocol.MicroblogCredentials{
		ConsumerKey:    pick("consumer_key"),
		ConsumerSecret: pick("consumer_secret"),
		AccessToken:    pick("access_token"),
		AccessSecret:   pick("access_secret"),
	}

	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" ||
		creds.AccessToken == "" || creds.AccessSecret == "" {
		return creds, fmt.Errorf("incomplete micro-blog credentials: %w", steps.ErrCredentialNotFound)
	}

	return creds, nil
}

func (h *handler) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	if execCtx.Microblog == nil {
		return nil, protocol.MissingCapability("micro-blog client")
	}

	creds, err := h.credentials(ctx, execCtx)
	if err != nil {
		return nil, err
	}

	sub := execCtx.Scope.Substitute
	postID := sub(steps.String(h.config, "post_id"))

	switch h.op {
	case opPost:
		post, err := execCtx.Microblog.Post(ctx, creds, sub(steps.String(h.config, "text")))
		if err != nil {
			return nil, fmt.Errorf("micro-blog post: %w", err)
		}

		if key := steps.StoreKey(h.config); key != "" {
			execCtx.Scope.SetValue(key, post.ID)
		}

		return post, nil
	case opDelete:
		return nil, execCtx.Microblog.Delete(ctx, creds, postID)
	case opLike:
		return nil, execCtx.Microblog.Like(ctx, creds, postID)
	case opReshare:
		return nil, execCtx.Microblog.Reshare(ctx, creds, postID)
	case opSearch:
		posts, err := execCtx.Microblog.Search(ctx, creds, sub(steps.String(h.config, "query")), steps.Int(h.config, "limit", 20))
		if err != nil {
			return nil, fmt.Errorf("micro-blog search: %w", err)
		}

		if key := steps.StoreKey(h.config); key != "" {
			results := make([]any, 0, len(posts))
			for _, p := range posts {
				results = append(results, map[string]any{"id": p.ID, "text": p.Text})
			}

			execCtx.Scope.SetValue(key, results)
		}

		return len(posts), nil
	case opDM:
		recipient := sub(steps.String(h.config, "recipient_id"))
		if err := execCtx.Microblog.DirectMessage(ctx, creds, recipient, sub(steps.String(h.config, "text"))); err != nil {
			return nil, fmt.Errorf("micro-blog direct message: %w", err)
		}

		return nil, nil
	default:
		return nil, fmt.Errorf("unknown micro-blog operation %d", h.op)
	}
}
