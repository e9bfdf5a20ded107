package endpoint

import (
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// IsDeepEmpty reports whether v is null, a blank string, or a container whose
// every element is deep-empty. Numbers and booleans are never empty.
func IsDeepEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case jsontree.Object:
		for _, child := range t {
			if !IsDeepEmpty(child) {
				return false
			}
		}
		return true
	case []any:
		for _, child := range t {
			if !IsDeepEmpty(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsUnset reports whether v is null or an empty object or array. An object
// with blank fields is set.
func IsUnset(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case jsontree.Object:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// IsEffectivelyEmptyRequest also treats a request whose headers, query and
// body are all deep-empty as empty.
func IsEffectivelyEmptyRequest(v any) bool {
	return effectivelyEmpty(v, "headers", "query", "body")
}

// IsEffectivelyEmptyResponse is IsEffectivelyEmptyRequest for headers and body.
func IsEffectivelyEmptyResponse(v any) bool {
	return effectivelyEmpty(v, "headers", "body")
}

func effectivelyEmpty(v any, parts ...string) bool {
	if IsDeepEmpty(v) {
		return true
	}
	o, ok := v.(jsontree.Object)
	if !ok {
		return false
	}
	for _, p := range parts {
		if !IsDeepEmpty(o[p]) {
			return false
		}
	}
	return true
}

var genericTitles = map[string]bool{"document": true, "api": true, "interface": true}

var genericTitleWords = []string{"product introduction", "terminologies", "abbreviations", "overview", "note", "introduction"}

// IsGenericTitle reports whether a title names front matter rather than an
// operation.
func IsGenericTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" || genericTitles[t] {
		return true
	}
	for _, w := range genericTitleWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// HasMeaningfulContent requires non-empty request and response examples. A
// generic title additionally needs a method or required fields.
func HasMeaningfulContent(c Candidate) bool {
	if IsEffectivelyEmptyRequest(c.RequestExample) || IsEffectivelyEmptyResponse(c.ResponseExample) {
		return false
	}
	if IsGenericTitle(c.Title) && strings.TrimSpace(c.Method) == "" && len(c.RequiredFields) == 0 {
		return false
	}
	return true
}
