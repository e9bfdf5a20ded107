package mock

import (
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
)

// BuildErrorResponse copies the definition's error example when it is set,
// else its response example, else a stock error body. The sentinel code and
// message are written into every code and message field of the copy.
func BuildErrorResponse(d *endpoint.Definition, s Sentinel) any {
	var base any
	switch {
	case !endpoint.IsUnset(d.ErrorResponseExample):
		base = jsontree.Copy(d.ErrorResponseExample)
	case !endpoint.IsDeepEmpty(d.ResponseExample):
		base = jsontree.Copy(d.ResponseExample)
	default:
		return jsontree.Object{"ErrorCode": s.Code, "ErrorDescription": s.Message}
	}
	rewriteErrorFields(base, s.Code, s.Message)
	return base
}

func rewriteErrorFields(v any, code, message string) {
	switch t := v.(type) {
	case jsontree.Object:
		for key, val := range t {
			if jsontree.IsContainer(val) {
				rewriteErrorFields(val, code, message)
				continue
			}
			switch {
			case isCodeField(key):
				t[key] = code
			case isMessageField(key):
				t[key] = message
			}
		}
	case []any:
		for _, item := range t {
			rewriteErrorFields(item, code, message)
		}
	}
}

func isCodeField(key string) bool {
	k := strings.ToLower(key)
	return k == "code" || (strings.Contains(k, "error") && strings.Contains(k, "code"))
}

func isMessageField(key string) bool {
	k := strings.ToLower(key)
	if k == "message" || k == "msg" {
		return true
	}
	return strings.Contains(k, "error") && (strings.Contains(k, "message") || strings.Contains(k, "desc"))
}
