// Package browser implements the browser-action capability over the Chrome
// DevTools protocol. The headless and windowed sessions share every action;
// they differ only in how the underlying browser is allocated.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultActionTimeout = 15 * time.Second

// Session drives one browser surface. A windowed session is a single shared
// resource per process: one windowed run at a time, exclusive access assumed.
type Session struct {
	ctx           context.Context
	cancels       []context.CancelFunc
	actionTimeout time.Duration
}

// NewHeadless starts a detached, non-visible browser owned by this process.
func NewHeadless(parent context.Context) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, chromedp.DefaultExecAllocatorOptions[:]...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()

		return nil, fmt.Errorf("failed to start headless browser: %w", err)
	}

	return &Session{
		ctx:           browserCtx,
		cancels:       []context.CancelFunc{browserCancel, allocCancel},
		actionTimeout: defaultActionTimeout,
	}, nil
}

// NewWindowed attaches to an externally managed visible browser through its
// DevTools endpoint. Opening and closing that browser is not this package's
// concern.
func NewWindowed(parent context.Context, devtoolsURL string) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(parent, devtoolsURL)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()

		return nil, fmt.Errorf("failed to attach to browser at %s: %w", devtoolsURL, err)
	}

	return &Session{
		ctx:           browserCtx,
		cancels:       []context.CancelFunc{browserCancel, allocCancel},
		actionTimeout: defaultActionTimeout,
	}, nil
}

// Close tears down the session. For a windowed session the external browser
// itself stays open.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// run executes chromedp actions under the session's action timeout.
func (s *Session) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.actionTimeout)
	defer cancel()

	return chromedp.Run(ctx, actions...)
}

// looksLikeXPath reports whether a selector is written as an XPath.
func looksLikeXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") ||
		strings.HasPrefix(selector, "./") ||
		strings.HasPrefix(selector, "(")
}

// withSelector runs build(selector) as a CSS query first, then retries the
// same selector as an XPath search. Interactively picked selectors routinely
// only resolve via the fallback.
func (s *Session) withSelector(selector string, build func(sel any, opts ...chromedp.QueryOption) chromedp.Action) error {
	if looksLikeXPath(selector) {
		return s.run(build(selector, chromedp.BySearch))
	}

	if err := s.run(build(selector, chromedp.ByQuery)); err == nil {
		return nil
	}

	return s.run(build(selector, chromedp.BySearch))
}
