package endpoint

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// CandidateFromObject reads an extractor's JSON object. Examples are repaired
// with FixStringifiedJSON; fallbackTitle is used when the object has none.
func CandidateFromObject(o jsontree.Object, fallbackTitle string) Candidate {
	c := Candidate{
		Title:   jsontree.TextOr(o["title"], fallbackTitle),
		Method:  jsontree.TextOr(o["method"], ""),
		APIPath: jsontree.TextOr(o["apiPath"], ""),
	}
	if v, ok := o["requestExample"]; ok {
		c.RequestExample = FixStringifiedJSON(v)
	}
	if v, ok := o["responseExample"]; ok {
		c.ResponseExample = FixStringifiedJSON(v)
	}
	if v, ok := o["errorResponseExample"]; ok {
		c.ErrorResponseExample = FixStringifiedJSON(v)
	}
	c.ErrorHTTPStatus = intField(o["errorHttpStatus"])
	c.ResponseDelayMs = intField(o["responseDelayMs"])
	if list, ok := o["requiredFields"].([]any); ok {
		for _, f := range list {
			if s, ok := f.(string); ok && strings.TrimSpace(s) != "" {
				c.RequiredFields = append(c.RequiredFields, NormalizeRequiredField(s))
			}
		}
	}
	return c
}

func intField(v any) *int {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	case float64:
		n := int(t)
		return &n
	default:
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		n = int(f)
	}
	return &n
}
