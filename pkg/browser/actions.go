package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// existsScript resolves a selector as CSS or XPath without waiting; a
// selector that matches nothing is a soft miss, never an error.
const existsScript = `(function(sel) {
	try {
		if (sel.startsWith('/') || sel.startsWith('./') || sel.startsWith('(')) {
			return document.evaluate(sel, document, null,
				XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null;
		}
		return document.querySelector(sel) !== null;
	} catch (e) {
		return false;
	}
})(%q)`

const hoverScript = `(function(sel) {
	var el;
	if (sel.startsWith('/') || sel.startsWith('./') || sel.startsWith('(')) {
		el = document.evaluate(sel, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	} else {
		el = document.querySelector(sel);
	}
	if (!el) { return false; }
	el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
	el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: true}));
	return true;
})(%q)`

func (s *Session) Navigate(_ context.Context, url string) error {
	return s.run(chromedp.Navigate(url))
}

func (s *Session) Back(_ context.Context) error {
	return s.run(chromedp.NavigateBack())
}

func (s *Session) Refresh(_ context.Context) error {
	return s.run(chromedp.Reload())
}

func (s *Session) Click(_ context.Context, selector string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.Click(sel, append(opts, chromedp.NodeVisible)...)
	})
}

func (s *Session) Type(_ context.Context, selector, text string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.SendKeys(sel, text, opts...)
	})
}

func (s *Session) ExtractText(_ context.Context, selector string) (string, error) {
	var text string

	err := s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.Text(sel, &text, opts...)
	})
	if err != nil {
		return "", err
	}

	return text, nil
}

func (s *Session) ExtractAttribute(_ context.Context, selector, attribute string) (string, error) {
	var (
		value string
		ok    bool
	)

	err := s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.AttributeValue(sel, attribute, &value, &ok, opts...)
	})
	if err != nil {
		return "", err
	}

	if !ok {
		return "", fmt.Errorf("attribute %q not present on %q", attribute, selector)
	}

	return value, nil
}

func (s *Session) ScrollTo(_ context.Context, selector string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.ScrollIntoView(sel, opts...)
	})
}

func (s *Session) ScrollBy(_ context.Context, pixels int) error {
	return s.run(chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", pixels), nil))
}

func (s *Session) SelectOption(_ context.Context, selector, value string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.SetValue(sel, value, opts...)
	})
}

func (s *Session) UploadFile(_ context.Context, selector, path string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.SetUploadFiles(sel, []string{path}, opts...)
	})
}

func (s *Session) Hover(_ context.Context, selector string) error {
	var hovered bool

	if err := s.run(chromedp.Evaluate(fmt.Sprintf(hoverScript, selector), &hovered)); err != nil {
		return err
	}

	if !hovered {
		return fmt.Errorf("no element matches %q", selector)
	}

	return nil
}

func (s *Session) Screenshot(_ context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}

	return buf, nil
}

func (s *Session) WaitForSelector(_ context.Context, selector string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.WaitVisible(sel, opts...)
	})
}

func (s *Session) PressKey(_ context.Context, selector, key string) error {
	return s.withSelector(selector, func(sel any, opts ...chromedp.QueryOption) chromedp.Action {
		return chromedp.SendKeys(sel, keyChord(key), opts...)
	})
}

// ElementExists evaluates immediately, without the usual query wait.
func (s *Session) ElementExists(_ context.Context, selector string) (bool, error) {
	var exists bool
	if err := s.run(chromedp.Evaluate(fmt.Sprintf(existsScript, selector), &exists)); err != nil {
		return false, err
	}

	return exists, nil
}

// keyChord maps common key names to their input characters.
func keyChord(key string) string {
	switch key {
	case "Enter":
		return "\r"
	case "Tab":
		return "\t"
	case "Escape":
		return "\u001b"
	case "Backspace":
		return "\b"
	default:
		return key
	}
}
