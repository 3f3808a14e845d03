// Package protocol defines the interfaces and contracts between the execution
// core and its external collaborators: browser surfaces, outbound HTTP,
// third-party messaging services, and the credential store.
package protocol

import "context"

// BrowserActions is the browser-action capability a step handler drives.
// The headless and windowed implementations differ only in which browser
// surface they are attached to, never in behavior. Selectors are resolved as
// CSS first with an XPath fallback.
type BrowserActions interface {
	PageQuerier

	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	ExtractAttribute(ctx context.Context, selector, attribute string) (string, error)
	ScrollTo(ctx context.Context, selector string) error
	ScrollBy(ctx context.Context, pixels int) error
	SelectOption(ctx context.Context, selector, value string) error
	UploadFile(ctx context.Context, selector, path string) error
	Hover(ctx context.Context, selector string) error
	Screenshot(ctx context.Context) ([]byte, error)
	WaitForSelector(ctx context.Context, selector string) error
	PressKey(ctx context.Context, selector, key string) error
	Back(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// PageQuerier is the read-only page subset the conditional evaluator needs.
type PageQuerier interface {
	// ElementExists reports whether the selector resolves to at least one node.
	// A selector that matches nothing is a soft miss, not an error.
	ElementExists(ctx context.Context, selector string) (bool, error)

	// ExtractText returns the text content of the first matching element.
	ExtractText(ctx context.Context, selector string) (string, error)
}
