package classify

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docmock/internal/doctree"
)

var plainFieldName = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// FormatSection renders a section as extractor input: a "# title" line, the
// trimmed prose, then each table with an optional role hint.
func FormatSection(s doctree.Section) string {
	var b strings.Builder
	if title := strings.TrimSpace(s.Title); title != "" {
		b.WriteString("# " + title + "\n")
	}
	if content := strings.TrimSpace(s.Content); content != "" {
		b.WriteString(content + "\n")
	}
	if len(s.Tables) == 0 {
		return b.String()
	}
	hint := TableContextHint(s)
	for _, t := range s.Tables {
		if hint != "" {
			b.WriteString(hint + "\n")
			if names := HeaderFieldNames(t); names != "" {
				b.WriteString("Header Fields: " + names + "\n")
			}
		}
		b.WriteString(FormatTable(t))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTable joins headers and each row with " | ", one line each.
// Ragged rows are written as they are.
func FormatTable(t doctree.Table) string {
	var b strings.Builder
	if len(t.Headers) > 0 {
		b.WriteString(strings.Join(t.Headers, " | "))
		b.WriteString("\n")
	}
	for _, row := range t.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}

// TableContextHint names the role of a section's tables, or "" when unknown.
func TableContextHint(s doctree.Section) string {
	title := strings.ToLower(strings.TrimSpace(s.Title))
	switch {
	case strings.Contains(title, "request header"):
		return "Request Headers Table:"
	case strings.Contains(title, "response header"):
		return "Response Headers Table:"
	case containsAny(title, "request body", "request parameter"):
		return "Request Body Table:"
	case containsAny(title, "response body", "response parameter"):
		return "Response Body Table:"
	}
	for _, t := range s.Tables {
		if looksLikeHeaderTable(t) {
			return "Request Headers Table:"
		}
	}
	return ""
}

func looksLikeHeaderTable(t doctree.Table) bool {
	for _, h := range t.Headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "header" || strings.Contains(h, "header field") {
			return true
		}
	}
	return false
}

// HeaderFieldNames lists the header names found in a header table's name
// column, joined with ", ". A row too short for that column offers its first
// cell instead.
func HeaderFieldNames(t doctree.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	idx := headerIndex(t.Headers, "header field name", "header field", "header", "name")
	if idx < 0 {
		idx = 0
	}
	var names []string
	for _, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		col := idx
		if col >= len(row) {
			col = 0
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		lower := strings.ToLower(value)
		if lower == "content-type" || lower == "accept" ||
			containsAny(lower, "api_key", "x-signature", "authorization", "x-auth", "x-client") ||
			plainFieldName.MatchString(value) {
			names = append(names, value)
		}
	}
	return strings.Join(names, ", ")
}

func headerIndex(headers []string, candidates ...string) int {
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, c := range candidates {
			if strings.Contains(h, c) {
				return i
			}
		}
	}
	return -1
}
