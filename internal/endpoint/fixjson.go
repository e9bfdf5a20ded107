package endpoint

import (
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// FixStringifiedJSON returns a new tree in which every string holding a JSON
// object or array literal is replaced by the decoded value. Strings that fail
// to decode are kept. Running it on its own output changes nothing.
func FixStringifiedJSON(v any) any {
	switch t := v.(type) {
	case jsontree.Object:
		out := make(jsontree.Object, len(t))
		for k, child := range t {
			out[k] = FixStringifiedJSON(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = FixStringifiedJSON(child)
		}
		return out
	case string:
		s := strings.TrimSpace(t)
		if !looksLikeJSONContainer(s) {
			return t
		}
		parsed, err := jsontree.DecodeString(s)
		if err != nil {
			return t
		}
		return FixStringifiedJSON(parsed)
	default:
		return v
	}
}

func looksLikeJSONContainer(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}
