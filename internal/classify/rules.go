package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultURLPattern matches absolute URLs and slash-led paths.
const DefaultURLPattern = `(https?://|/)[\w\-./:?&=%#]+`

var defaultURLRegexp = regexp.MustCompile(DefaultURLPattern)

// Rules is the immutable configuration shared by the relevance predicates and
// path extraction. Copy it freely; WithKeywords returns a new value.
type Rules struct {
	Keywords   []string // lower-cased, never blank
	URLPattern *regexp.Regexp
}

// DefaultRules has no keywords and the default URL pattern.
func DefaultRules() Rules {
	return Rules{URLPattern: defaultURLRegexp}
}

// NewRules builds Rules from keywords and an optional URL regex.
func NewRules(keywords []string, urlPattern string) (Rules, error) {
	r := DefaultRules()
	r.Keywords = normalizeKeywords(keywords)
	if strings.TrimSpace(urlPattern) != "" {
		re, err := regexp.Compile(urlPattern)
		if err != nil {
			return Rules{}, fmt.Errorf("compile url pattern: %w", err)
		}
		r.URLPattern = re
	}
	return r, nil
}

// WithKeywords returns a copy with extra keywords placed ahead of the
// existing ones. Duplicates are dropped.
func (r Rules) WithKeywords(extra []string) Rules {
	out := r
	out.Keywords = normalizeKeywords(append(append([]string{}, extra...), r.Keywords...))
	return out
}

// ParseKeywords splits a comma separated keyword list.
func ParseKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizeKeywords(strings.Split(raw, ","))
}

func (r Rules) urlRegexp() *regexp.Regexp {
	if r.URLPattern == nil {
		return defaultURLRegexp
	}
	return r.URLPattern
}

// ContainsURL reports whether text holds a URL-shaped token.
func (r Rules) ContainsURL(text string) bool {
	if text == "" {
		return false
	}
	return r.urlRegexp().MatchString(text)
}

// FindURLs returns every URL-shaped token in text.
func (r Rules) FindURLs(text string) []string {
	return r.urlRegexp().FindAllString(text, -1)
}

func (r Rules) containsKeyword(lower string) bool {
	if lower == "" {
		return false
	}
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// FindURLIndex is FindURLs returning [start, end) byte offsets.
func (r Rules) FindURLIndex(text string) [][]int {
	return r.urlRegexp().FindAllStringIndex(text, -1)
}
