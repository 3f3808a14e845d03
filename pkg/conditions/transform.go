package conditions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/webpilot-io/webpilot/pkg/models"
)

var (
	currencyPattern   = regexp.MustCompile(`[$€£¥₩₹,\s]`)
	nonNumericPattern = regexp.MustCompile(`[^0-9.\-]`)
)

// applyTransform runs the single selected transform over a raw extracted
// value. The pipeline order is fixed (currency strip, non-numeric strip,
// literal removal, regex replace) and exactly one stage applies per
// evaluation; TransformNone passes the value through.
func applyTransform(raw string, cond *models.DOMCondition) (string, error) {
	switch cond.Transform {
	case models.TransformNone, "":
		return raw, nil
	case models.TransformStripCurrency:
		return currencyPattern.ReplaceAllString(raw, ""), nil
	case models.TransformStripNonNumeric:
		return nonNumericPattern.ReplaceAllString(raw, ""), nil
	case models.TransformRemoveChars:
		out := raw
		for _, ch := range cond.RemoveChars {
			out = strings.ReplaceAll(out, string(ch), "")
		}

		return out, nil
	case models.TransformRegexReplace:
		pattern, err := regexp.Compile(cond.ReplacePattern)
		if err != nil {
			return "", fmt.Errorf("invalid replace pattern %q: %w", cond.ReplacePattern, err)
		}

		return pattern.ReplaceAllString(raw, cond.ReplaceWith), nil
	default:
		return "", fmt.Errorf("unknown transform type %q", cond.Transform)
	}
}
