package extract

import (
	"regexp"
	"strings"
)

var (
	headingMarks  = regexp.MustCompile(`^#+\s*`)
	apiNameLine   = regexp.MustCompile(`(?i)^api\s*name\s*[:：\-–]*\s*(.+)$`)
	apiDashLine   = regexp.MustCompile(`(?i)\bapi(?: -| –|—)\s*(.+)$`)
	numberedAPIre = regexp.MustCompile(`(?i)^\d+(?:\.\d+){0,3}\s+(api\b.*)$`)
)

var headerTitleWords = []string{"content-type", "api_key", "x-signature", "x-auth", "x-client"}

// NormalizeTitle prefers a title the text states explicitly ("API Name: X",
// "API - X", "4.1 API X") over the heading-derived one, and replaces titles
// that are really HTTP header names with one derived from apiPath.
func NormalizeTitle(title, text, apiPath string) string {
	result := strings.TrimSpace(title)
	if stated := statedTitle(text); stated != "" {
		result = stated
	} else if m := numberedAPIre.FindStringSubmatch(result); m != nil {
		result = strings.TrimSpace(m[1])
	}
	if looksLikeHeaderName(result) {
		if seg := lastSegment(apiPath); seg != "" {
			result = "API " + seg
		}
	}
	return result
}

func statedTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(headingMarks.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		if m := apiNameLine.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return "API - " + name
			}
		}
		if m := apiDashLine.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return "API - " + name
			}
		}
		if m := numberedAPIre.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func looksLikeHeaderName(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "accept" || strings.HasPrefix(t, "x-") {
		return true
	}
	for _, w := range headerTitleWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

func lastSegment(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(parts[i]); s != "" {
			return s
		}
	}
	return ""
}
