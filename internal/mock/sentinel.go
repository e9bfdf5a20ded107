package mock

import (
	"encoding/json"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// Sentinel request fields that switch a call to the error branch.
const (
	ErrorFlagField    = "__mock_error"
	ErrorCodeField    = "__mock_error_code"
	ErrorMessageField = "__mock_error_message"

	DefaultErrorCode    = "ERROR"
	DefaultErrorMessage = "mock error"
)

// Sentinel is the error simulation requested by a call.
type Sentinel struct {
	Active  bool
	Code    string
	Message string
}

// DetectSentinel looks for the sentinel fields in the body, at the top level,
// in the query and in the headers, in that order.
func DetectSentinel(tree jsontree.Object) Sentinel {
	s := Sentinel{Code: DefaultErrorCode, Message: DefaultErrorMessage}
	if flag, ok := sentinelField(tree, ErrorFlagField); ok && flagSet(flag) {
		s.Active = true
	}
	if code, ok := sentinelField(tree, ErrorCodeField); ok && isTextual(code) {
		s.Active = true
		if text, _ := jsontree.Text(code); strings.TrimSpace(text) != "" {
			s.Code = strings.TrimSpace(text)
		}
	}
	if msg, ok := sentinelField(tree, ErrorMessageField); ok {
		if text, ok := jsontree.Text(msg); ok && strings.TrimSpace(text) != "" {
			s.Message = strings.TrimSpace(text)
		}
	}
	return s
}

func sentinelField(tree jsontree.Object, name string) (any, bool) {
	scopes := []any{tree["body"], tree, tree["query"], tree["headers"]}
	for _, scope := range scopes {
		o := jsontree.AsObject(scope)
		if o == nil {
			continue
		}
		if v, ok := jsontree.Field(o, name); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func flagSet(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string, json.Number, float64:
		text, _ := jsontree.Text(t)
		text = strings.TrimSpace(text)
		return text != "" && text != "0" && !strings.EqualFold(text, "false")
	}
	return false
}

func isTextual(v any) bool {
	switch v.(type) {
	case string, json.Number, float64:
		return true
	}
	return false
}
