package mock

import (
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
)

// Missing lists the required fields absent from the request tree. Fields that
// do not resolve inside example are ignored; a nil example checks them all.
func Missing(required []string, tree, example jsontree.Object) []string {
	missing := []string{}
	for _, path := range required {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if example != nil && !inExample(example, path) {
			continue
		}
		if _, ok := resolve(tree, path); !ok {
			missing = append(missing, path)
		}
	}
	return missing
}

func inExample(example jsontree.Object, path string) bool {
	return len(endpoint.PruneRequiredFields([]string{path}, example)) > 0
}

// resolve reads a dot path from the request tree with case-insensitive
// fallback. A query field may be answered by the body and the other way
// round; an unprefixed path is looked up under body, query and headers.
func resolve(tree jsontree.Object, path string) (any, bool) {
	if v, ok := jsontree.LookupFold(tree, path); ok {
		return v, true
	}
	part, rest, found := strings.Cut(path, ".")
	switch {
	case found && strings.EqualFold(part, "query"):
		return jsontree.LookupFold(tree["body"], rest)
	case found && strings.EqualFold(part, "body"):
		return jsontree.LookupFold(tree["query"], rest)
	case !endpoint.HasPartPrefix(path):
		for _, p := range []string{"body", "query", "headers"} {
			if v, ok := jsontree.LookupFold(tree[p], path); ok {
				return v, true
			}
		}
	}
	return nil, false
}
