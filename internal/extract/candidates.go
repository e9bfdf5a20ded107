package extract

import (
	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
)

// ParseCandidates reads a model answer as a list of endpoint candidates. The
// answer may be an array, an {"items": [...]} wrapper, or a single object.
// Non-object entries are skipped.
func ParseCandidates(raw, fallbackTitle string) ([]endpoint.Candidate, error) {
	v, err := ReadLoosely(raw)
	if err != nil {
		return nil, err
	}
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case jsontree.Object:
		if list, ok := t["items"].([]any); ok {
			items = list
		} else {
			items = []any{t}
		}
	}
	var out []endpoint.Candidate
	for _, item := range items {
		if o, ok := item.(jsontree.Object); ok {
			out = append(out, endpoint.CandidateFromObject(o, fallbackTitle))
		}
	}
	return out, nil
}
