package endpoint

import (
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// Request tree parts, in the order unprefixed fields are resolved.
var requestParts = []string{"body", "query", "headers"}

// NormalizeRequiredField trims a path and rewrites "response.headers.",
// "response.body." and "request." prefixes to the request-relative form.
func NormalizeRequiredField(f string) string {
	f = strings.TrimSpace(f)
	switch {
	case strings.HasPrefix(f, "response.headers."):
		return "headers." + strings.TrimPrefix(f, "response.headers.")
	case strings.HasPrefix(f, "response.body."):
		return "body." + strings.TrimPrefix(f, "response.body.")
	case strings.HasPrefix(f, "request."):
		return strings.TrimPrefix(f, "request.")
	}
	return f
}

// HasPartPrefix reports whether a path starts with headers., query. or body.
func HasPartPrefix(path string) bool {
	part, _, ok := strings.Cut(path, ".")
	return ok && (part == "headers" || part == "query" || part == "body")
}

// PruneRequiredFields normalizes fields and keeps only those that resolve in
// the request example. Unprefixed fields are looked up under body, query and
// headers, and stored with the first prefix that matches.
func PruneRequiredFields(fields []string, request jsontree.Object) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, f := range fields {
		f = NormalizeRequiredField(f)
		if f == "" {
			continue
		}
		resolved := ""
		if HasPartPrefix(f) {
			if existsIn(request, f) {
				resolved = f
			}
		} else {
			for _, part := range requestParts {
				if existsIn(request, part+"."+f) {
					resolved = part + "." + f
					break
				}
			}
		}
		if resolved == "" || seen[strings.ToLower(resolved)] {
			continue
		}
		seen[strings.ToLower(resolved)] = true
		out = append(out, resolved)
	}
	return out
}

// existsIn checks a prefixed path. A flat example without the part key is
// searched directly.
func existsIn(request jsontree.Object, path string) bool {
	if _, ok := jsontree.LookupFold(request, path); ok {
		return true
	}
	part, rest, _ := strings.Cut(path, ".")
	if _, ok := jsontree.Field(request, part); ok {
		return false
	}
	_, ok := jsontree.LookupFold(request, rest)
	return ok
}
