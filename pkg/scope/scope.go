// Package scope implements the per-run variable store: typed values, dotted-path
// and array-index lookup, and {{token}} string interpolation.
package scope

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// Scope is one run's variable mapping. A scope is exclusively owned by a single
// execution; it is never shared across runs and needs no locking.
type Scope struct {
	data map[string]any
}

// New creates a scope seeded from automation-level defaults. The seed is
// copied one level deep so a run never mutates the stored automation.
func New(seed map[string]any) *Scope {
	data := make(map[string]any, len(seed))
	for k, v := range seed {
		data[k] = v
	}

	return &Scope{data: data}
}

// Set stores a raw string value under key, auto-typing it via ParseValue.
// Later writes overwrite earlier ones.
func (s *Scope) Set(key, raw string) {
	s.data[key] = ParseValue(raw)
}

// SetValue stores an already-typed value under key.
func (s *Scope) SetValue(key string, value any) {
	s.data[key] = value
}

// Delete removes a key from the scope.
func (s *Scope) Delete(key string) {
	delete(s.data, key)
}

// Get resolves a path like "a.b[0].c" against the scope. A missing key, an
// out-of-range index, or indexing into a scalar all resolve to nil so that
// templated steps never hard-fail on a missing upstream value.
func (s *Scope) Get(path string) any {
	tokens := tokenize(path)
	if len(tokens) == 0 {
		return nil
	}

	container := gabs.Wrap(s.data).Search(tokens...)
	if container == nil {
		return nil
	}

	return container.Data()
}

// GetString resolves a path and stringifies the result; soft misses yield "".
func (s *Scope) GetString(path string) string {
	return Stringify(s.Get(path))
}

// Has reports whether the path resolves to a non-nil, non-empty-string value.
func (s *Scope) Has(path string) bool {
	return Stringify(s.Get(path)) != ""
}

// Snapshot returns a shallow copy of the scope's current contents.
func (s *Scope) Snapshot() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}

	return out
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Substitute replaces every {{ path }} occurrence in the template with the
// stringified looked-up value. Whitespace around the path is tolerated;
// misses substitute an empty string.
func (s *Scope) Substitute(template string) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := tokenPattern.FindStringSubmatch(match)[1]

		return s.GetString(path)
	})
}

// tokenize splits "a.b[0].c" into ["a" "b" "0" "c"]. Bracket tokens become
// bare path segments; numeric segments index arrays during resolution.
func tokenize(path string) []string {
	var tokens []string

	for _, part := range strings.Split(path, ".") {
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					tokens = append(tokens, part)
				}

				break
			}

			closing := strings.IndexByte(part, ']')
			if closing < open {
				// Unbalanced bracket, treat the rest as a literal segment.
				tokens = append(tokens, part)

				break
			}

			if head := part[:open]; head != "" {
				tokens = append(tokens, head)
			}

			if idx := part[open+1 : closing]; idx != "" {
				tokens = append(tokens, idx)
			}

			part = part[closing+1:]
		}
	}

	return tokens
}

// ParseValue auto-types a raw string: valid JSON parses to its value (numbers,
// booleans, null, objects, arrays), then literal booleans, then numeric
// strings, else the string is kept as-is.
func ParseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return parsed
	}

	if b, err := strconv.ParseBool(trimmed); err == nil {
		return b
	}

	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}

	return raw
}

// Stringify renders a value for interpolation: nil becomes "", numbers render
// without exponent notation, objects and arrays are JSON-encoded.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	}
}
