// Package classify holds the heuristics that decide which document sections
// describe an API operation and where one operation ends and the next begins.
// Everything here is a pure function of its inputs.
package classify

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docmock/internal/doctree"
)

const verbs = `(get|post|update|create|delete|list|add|remove|release|cancel|handle|confirm|download|generate)`

var (
	versionTitle   = regexp.MustCompile(`^v\d+`)
	verbLed        = regexp.MustCompile(`^` + verbs)
	verbLedTitle   = regexp.MustCompile(`(?s)^` + verbs + `.+`)
	verbLedStrong  = regexp.MustCompile(`(?s)^` + verbs + `\b.+`)
	numberedTitle  = regexp.MustCompile(`(?s)^\d+(\.\d+){1,3}\s+.+`)
	numberedAPI    = regexp.MustCompile(`(?s)^\d+(\.\d+){0,3}\s+api\b.+`)
	dottedLeader   = regexp.MustCompile(`\.{5,}\s*\d+`)
	containsDigits = regexp.MustCompile(`\d`)
)

var noiseMarkers = []string{"document history", "revision", "distribution", "approval", "table of contents"}

// exampleVocabulary marks text that talks about requests, responses or samples.
var exampleVocabulary = []string{"request", "response", "sample", "example", "请求", "响应", "示例"}

// IsNoise reports whether a section is revision history, approvals, a table
// of contents or similar front matter.
func IsNoise(s doctree.Section) bool {
	title := strings.ToLower(strings.TrimSpace(s.Title))
	content := strings.ToLower(s.Content)
	if title == "content" || title == "contents" {
		return true
	}
	if containsAny(title, noiseMarkers...) || containsAny(content, noiseMarkers...) {
		return true
	}
	return dottedLeader.MatchString(content)
}

// IsRelevant reports whether a section carries anything an extractor could use.
func (r Rules) IsRelevant(s doctree.Section) bool {
	if IsNoise(s) {
		return false
	}
	title := strings.ToLower(s.Title)
	content := strings.ToLower(s.Content)

	if r.containsKeyword(title) || r.containsKeyword(content) {
		return true
	}
	if r.ContainsURL(s.Content) || r.ContainsURL(s.Title) {
		return true
	}
	if containsAny(content, exampleVocabulary...) || containsAny(title, exampleVocabulary...) {
		return true
	}
	for _, t := range s.Tables {
		for _, h := range t.Headers {
			h = strings.ToLower(h)
			if r.containsKeyword(h) || containsAny(h, exampleVocabulary...) {
				return true
			}
		}
		if LooksLikeAPITable(t) {
			return true
		}
	}
	return false
}

// LooksLikeAPITable reports whether a table reads like a parameter or header
// specification.
func LooksLikeAPITable(t doctree.Table) bool {
	for _, h := range t.Headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "mo" || containsAny(h, "element name", "header field", "request parameters",
			"response parameters", "data type", "parameter", "m/o", "length") {
			return true
		}
	}
	for _, row := range t.Rows {
		for _, cell := range row {
			if containsAny(strings.ToLower(cell), "header", "request", "response", "parameter") {
				return true
			}
		}
	}
	return false
}

// IsEndpointSection reports whether a heading names an API operation rather
// than a changelog line, an annex, or a request/response sub-part.
func IsEndpointSection(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	if versionTitle.MatchString(t) {
		return false
	}
	if containsAny(t, "added", "updated", "update") && strings.Contains(t, "api") && !verbLed.MatchString(t) {
		return false
	}
	if containsAny(t, "annex", "appendix") {
		return false
	}
	if containsAny(t, "request headers", "response headers", "request body", "response body",
		"request parameters", "response parameters", "request & response",
		"resource specification", "interface message specification") {
		return false
	}
	if numberedTitle.MatchString(t) {
		if containsAny(t, "api", "接口") {
			return true
		}
		return containsAny(t, "download", "order", "profile", "get", "create", "update")
	}
	if containsAny(t, "api", "接口") {
		return !containsAny(t, "all api", "api call", "https")
	}
	return verbLedTitle.MatchString(t)
}

// IsAPISubSectionTitle reports whether a heading names a part of an operation
// (headers, body, samples, error codes) instead of the operation itself.
func IsAPISubSectionTitle(title string) bool {
	t := strings.ToLower(title)
	if t == "" {
		return false
	}
	if containsAny(t, "request specification", "response specification",
		"request header", "response header", "request body", "response body",
		"request parameter", "response parameter", "parameter request", "parameter response",
		"sample request", "sample response", "error code", "api name", "resource url",
		"content type", "security", "diagram flow", "api response", "api request") {
		return true
	}
	return strings.Contains(t, "parameter") && containsAny(t, "api", "response", "request")
}

// LooksLikeTableRowTitle catches table rows that a parser promoted to headings,
// e.g. "orderId String 32 Required order number".
func LooksLikeTableRowTitle(title string) bool {
	t := strings.ToLower(title)
	if t == "" {
		return false
	}
	hasTypeWord := containsAny(t, "string", "number", "int", "length", "required", "sample", "type")
	return hasTypeWord && containsDigits.MatchString(t) && len(strings.Fields(t)) >= 5
}

// IsStrongAPITitle reports whether a heading is assertive enough to open a new
// operation: a numbered "API ..." heading, a verb-led heading, or a short one
// mentioning api.
func IsStrongAPITitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	if numberedAPI.MatchString(t) || verbLedStrong.MatchString(t) {
		return true
	}
	return strings.Contains(t, "api") && len(strings.Fields(t)) <= 4
}

// IsEndpointBoundary reports whether a section starts a new API operation.
func IsEndpointBoundary(s doctree.Section) bool {
	return IsEndpointSection(s.Title) &&
		!IsAPISubSectionTitle(s.Title) &&
		!LooksLikeTableRowTitle(s.Title) &&
		IsStrongAPITitle(s.Title)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
