package mock

import (
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// Substitute copies the response example and replaces every scalar field
// whose name matches a request field with the request's value.
func Substitute(responseExample jsontree.Object, tree jsontree.Object) any {
	out := jsontree.Copy(responseExample)
	if out == nil {
		return jsontree.Object{}
	}
	fields := collectFields(tree)
	if len(fields) == 0 {
		return out
	}
	substitute(out, fields)
	return out
}

func substitute(v any, fields map[string]any) {
	switch t := v.(type) {
	case jsontree.Object:
		for key, val := range t {
			if jsontree.IsContainer(val) {
				substitute(val, fields)
				continue
			}
			if rv, ok := fields[strings.ToLower(key)]; ok {
				t[key] = jsontree.Copy(rv)
			}
		}
	case []any:
		for _, item := range t {
			substitute(item, fields)
		}
	}
}
