package extract

import (
	"strings"

	"github.com/dgallion1/docmock/internal/classify"
)

var pathHints = []string{"resource url", "url", "path", "endpoint"}

var rejectedPaths = map[string]bool{"/json": true, "/a": true, "/n/a": true, "/na": true, "/": true}

// ExtractAPIPath finds the most plausible API path mentioned in text, or "".
// Paths on lines that name a URL, path or endpoint beat paths anywhere else.
func ExtractAPIPath(text string, rules classify.Rules) string {
	var hinted, others []string
	for _, line := range strings.Split(text, "\n") {
		matches := rules.FindURLIndex(line)
		if len(matches) == 0 {
			continue
		}
		lower := strings.ToLower(line)
		isHint := false
		for _, h := range pathHints {
			if strings.Contains(lower, h) {
				isHint = true
				break
			}
		}
		for _, m := range matches {
			p := NormalizeAPIPath(line[m[0]:withTemplates(line, m[1])])
			if !acceptablePath(p) {
				continue
			}
			if isHint {
				hinted = append(hinted, p)
			} else {
				others = append(others, p)
			}
		}
	}
	if best := pickBestPath(hinted); best != "" {
		return best
	}
	return pickBestPath(others)
}

// NormalizeAPIPath strips scheme, host, query and fragment and ensures a
// leading slash. It returns "" when nothing path-like remains.
func NormalizeAPIPath(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.TrimRight(p, ".,;:)")
	if p == "" {
		return ""
	}
	if i := strings.Index(p, "://"); i >= 0 {
		rest := p[i+3:]
		slash := strings.IndexByte(rest, '/')
		if slash < 0 {
			return ""
		}
		p = rest[slash:]
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// withTemplates extends a match over trailing "{param}" segments, which the
// URL pattern does not cover.
func withTemplates(line string, end int) int {
	for end < len(line) && line[end] == '{' {
		closing := strings.IndexByte(line[end:], '}')
		if closing < 0 {
			break
		}
		end += closing + 1
		for end < len(line) && isPathByte(line[end]) {
			end++
		}
	}
	return end
}

func isPathByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '.' || c == '/'
}

func acceptablePath(p string) bool {
	if p == "" {
		return false
	}
	lower := strings.ToLower(p)
	if rejectedPaths[lower] {
		return false
	}
	return !strings.Contains(lower, "application/json") && !strings.Contains(lower, "text/plain")
}

// pickBestPath returns the highest scoring path. The earliest wins ties.
func pickBestPath(paths []string) string {
	best, bestScore := "", 0
	for _, p := range paths {
		s := scorePath(p)
		if best == "" || s > bestScore {
			best, bestScore = p, s
		}
	}
	return best
}

func scorePath(p string) int {
	lower := strings.ToLower(p)
	score := len(p)
	segments := strings.Split(strings.TrimRight(strings.TrimPrefix(p, "/"), "/"), "/")
	if len(segments) >= 2 {
		score += 8
	}
	if strings.Contains(lower, "/v1") || strings.Contains(lower, "/v2") || strings.Contains(lower, "/api") {
		score += 6
	}
	if strings.Contains(lower, "json") {
		score -= 5
	}
	return score
}
