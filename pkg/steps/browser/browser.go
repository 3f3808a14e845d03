// Package browser implements the DOM-driving step handlers. Every selector,
// URL and text field passes through the scope's substitution before touching
// the page; handler behavior is identical under headless and windowed
// surfaces.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

// Factories returns the factory for every browser step type.
func Factories() []protocol.StepFactory {
	return []protocol.StepFactory{
		steps.NewFactory("navigate",
			steps.ObjectSchema([]string{"url"}, map[string]any{"url": steps.StringProp()}),
			func(config map[string]any) (protocol.StepHandler, error) { return newNavigate(config) }),
		steps.NewFactory("goBack", steps.ObjectSchema(nil, nil),
			func(_ map[string]any) (protocol.StepHandler, error) { return &goBack{}, nil }),
		steps.NewFactory("refresh", steps.ObjectSchema(nil, nil),
			func(_ map[string]any) (protocol.StepHandler, error) { return &refresh{}, nil }),
		steps.NewFactory("click", selectorSchema(),
			func(config map[string]any) (protocol.StepHandler, error) { return newClick(config) }),
		steps.NewFactory("input",
			steps.ObjectSchema([]string{"selector", "text"}, map[string]any{
				"selector": steps.StringProp(),
				"text":     steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newInput(config) }),
		steps.NewFactory("pressKey",
			steps.ObjectSchema([]string{"selector", "key"}, map[string]any{
				"selector": steps.StringProp(),
				"key":      steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newPressKey(config) }),
		steps.NewFactory("hover", selectorSchema(),
			func(config map[string]any) (protocol.StepHandler, error) { return newHover(config) }),
		steps.NewFactory("selectOption",
			steps.ObjectSchema([]string{"selector", "value"}, map[string]any{
				"selector": steps.StringProp(),
				"value":    steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newSelectOption(config) }),
		steps.NewFactory("uploadFile",
			steps.ObjectSchema([]string{"selector", "path"}, map[string]any{
				"selector": steps.StringProp(),
				"path":     steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newUploadFile(config) }),
		steps.NewFactory("extractText",
			steps.ObjectSchema([]string{"selector"}, map[string]any{
				"selector":       steps.StringProp(),
				"store_variable": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newExtractText(config) }),
		steps.NewFactory("extractAttribute",
			steps.ObjectSchema([]string{"selector", "attribute"}, map[string]any{
				"selector":       steps.StringProp(),
				"attribute":      steps.StringProp(),
				"store_variable": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newExtractAttribute(config) }),
		steps.NewFactory("screenshot",
			steps.ObjectSchema(nil, map[string]any{"store_variable": steps.StringProp()}),
			func(config map[string]any) (protocol.StepHandler, error) {
				return &screenshot{storeKey: steps.StoreKey(config)}, nil
			}),
		steps.NewFactory("scroll",
			steps.ObjectSchema(nil, map[string]any{
				"selector": steps.StringProp(),
				"pixels":   steps.NumberProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newScroll(config) }),
		steps.NewFactory("waitForElement",
			steps.ObjectSchema([]string{"selector"}, map[string]any{
				"selector": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newWaitForElement(config) }),
		steps.NewFactory("wait",
			steps.ObjectSchema([]string{"milliseconds"}, map[string]any{
				"milliseconds": steps.NumberProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) {
				return &wait{duration: time.Duration(steps.Int(config, "milliseconds", 0)) * time.Millisecond}, nil
			}),
	}
}

func selectorSchema() map[string]any {
	return steps.ObjectSchema([]string{"selector"}, map[string]any{"selector": steps.StringProp()})
}

func requireBrowser(execCtx protocol.ExecutionContext) (protocol.BrowserActions, error) {
	if execCtx.Browser == nil {
		return nil, protocol.MissingCapability("browser surface")
	}

	return execCtx.Browser, nil
}

type navigate struct {
	url string
}

func newNavigate(config map[string]any) (*navigate, error) {
	url, err := steps.Require(config, "url")
	if err != nil {
		return nil, err
	}

	return &navigate{url: url}, nil
}

func (h *navigate) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	url := execCtx.Scope.Substitute(h.url)
	if err := b.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}

	return url, nil
}

type goBack struct{}

func (h *goBack) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	return nil, b.Back(ctx)
}

type refresh struct{}

func (h *refresh) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	return nil, b.Refresh(ctx)
}

type click struct {
	selector string
}

func newClick(config map[string]any) (*click, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	return &click{selector: selector}, nil
}

func (h *click) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	selector := execCtx.Scope.Substitute(h.selector)
	if err := b.Click(ctx, selector); err != nil {
		return nil, fmt.Errorf("click %q: %w", selector, err)
	}

	return nil, nil
}

type input struct {
	selector string
	text     string
}

func newInput(config map[string]any) (*input, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	return &input{selector: selector, text: steps.String(config, "text")}, nil
}

func (h *input) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	selector := execCtx.Scope.Substitute(h.selector)
	if err := b.Type(ctx, selector, execCtx.Scope.Substitute(h.text)); err != nil {
		return nil, fmt.Errorf("type into %q: %w", selector, err)
	}

	return nil, nil
}

type pressKey struct {
	selector string
	key      string
}

func newPressKey(config map[string]any) (*pressKey, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	key, err := steps.Require(config, "key")
	if err != nil {
		return nil, err
	}

	return &pressKey{selector: selector, key: key}, nil
}

func (h *pressKey) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	return nil, b.PressKey(ctx, execCtx.Scope.Substitute(h.selector), h.key)
}

type hover struct {
	selector string
}

func newHover(config map[string]any) (*hover, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	return &hover{selector: selector}, nil
}

func (h *hover) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	return nil, b.Hover(ctx, execCtx.Scope.Substitute(h.selector))
}

type selectOption struct {
	selector string
	value    string
}

func newSelectOption(config map[string]any) (*selectOption, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	value, err := steps.Require(config, "value")
	if err != nil {
		return nil, err
	}

	return &selectOption{selector: selector, value: value}, nil
}

func (h *selectOption) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	return nil, b.SelectOption(ctx, execCtx.Scope.Substitute(h.selector), execCtx.Scope.Substitute(h.value))
}

type uploadFile struct {
	selector string
	path     string
}

func newUploadFile(config map[string]any) (*uploadFile, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	path, err := steps.Require(config, "path")
	if err != nil {
		return nil, err
	}

	return &uploadFile{selector: selector, path: path}, nil
}

func (h *uploadFile) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	return nil, b.UploadFile(ctx, execCtx.Scope.Substitute(h.selector), execCtx.Scope.Substitute(h.path))
}

type extractText struct {
	selector string
	storeKey string
}

func newExtractText(config map[string]any) (*extractText, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	return &extractText{selector: selector, storeKey: steps.StoreKey(config)}, nil
}

func (h *extractText) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	selector := execCtx.Scope.Substitute(h.selector)

	text, err := b.ExtractText(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("extract text from %q: %w", selector, err)
	}

	if h.storeKey != "" {
		execCtx.Scope.Set(h.storeKey, text)
	}

	return text, nil
}

type extractAttribute struct {
	selector  string
	attribute string
	storeKey  string
}

func newExtractAttribute(config map[string]any) (*extractAttribute, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	attribute, err := steps.Require(config, "attribute")
	if err != nil {
		return nil, err
	}

	return &extractAttribute{
		selector:  selector,
		attribute: attribute,
		storeKey:  steps.StoreKey(config),
	}, nil
}

func (h *extractAttribute) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	selector := execCtx.Scope.Substitute(h.selector)

	value, err := b.ExtractAttribute(ctx, selector, h.attribute)
	if err != nil {
		return nil, fmt.Errorf("extract %s from %q: %w", h.attribute, selector, err)
	}

	if h.storeKey != "" {
		execCtx.Scope.Set(h.storeKey, value)
	}

	return value, nil
}

type screenshot struct {
	storeKey string
}

func (h *screenshot) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	data, err := b.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	if h.storeKey != "" {
		execCtx.Scope.SetValue(h.storeKey, data)
	}

	return len(data), nil
}

type scroll struct {
	selector string
	pixels   int
}

func newScroll(config map[string]any) (*scroll, error) {
	h := &scroll{
		selector: steps.String(config, "selector"),
		pixels:   steps.Int(config, "pixels", 0),
	}
	if h.selector == "" && h.pixels == 0 {
		return nil, fmt.Errorf("scroll needs a selector or a pixel amount")
	}

	return h, nil
}

func (h *scroll) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	if h.selector != "" {
		return nil, b.ScrollTo(ctx, execCtx.Scope.Substitute(h.selector))
	}

	return nil, b.ScrollBy(ctx, h.pixels)
}

type waitForElement struct {
	selector string
}

func newWaitForElement(config map[string]any) (*waitForElement, error) {
	selector, err := steps.Require(config, "selector")
	if err != nil {
		return nil, err
	}

	return &waitForElement{selector: selector}, nil
}

func (h *waitForElement) Execute(ctx context.Context, execCtx protocol.ExecutionContext) (any, error) {
	b, err := requireBrowser(execCtx)
	if err != nil {
		return nil, err
	}

	selector := execCtx.Scope.Substitute(h.selector)
	if err := b.WaitForSelector(ctx, selector); err != nil {
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}

	return nil, nil
}

type wait struct {
	duration time.Duration
}

func (h *wait) Execute(ctx context.Context, _ protocol.ExecutionContext) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(h.duration):
		return nil, nil
	}
}
