package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// Response is a fully built mock reply.
type Response struct {
	Status int
	Header map[string]string
	Body   []byte
}

// Envelope splits a generated value into headers and body. An object's
// "headers" member becomes response headers, skipping null and blank values;
// its "body" member, when present, is the body, otherwise the rest of the
// object is.
func Envelope(status int, v any) (*Response, error) {
	resp := &Response{Status: status, Header: map[string]string{}}
	body := v
	if obj := jsontree.AsObject(v); obj != nil {
		if headers := jsontree.AsObject(obj["headers"]); headers != nil {
			for name, value := range headers {
				if text, ok := jsontree.Text(value); ok && strings.TrimSpace(text) != "" {
					resp.Header[name] = text
				}
			}
		}
		if b, ok := obj["body"]; ok {
			body = b
		} else {
			rest := make(jsontree.Object, len(obj))
			for k, val := range obj {
				if k != "headers" {
					rest[k] = val
				}
			}
			body = rest
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode mock body: %w", err)
	}
	resp.Body = data
	return resp, nil
}

func validationFailure(missing []string) *Response {
	data, _ := json.Marshal(map[string]any{"error": "validation_failed", "missing": missing})
	return &Response{Status: http.StatusBadRequest, Header: map[string]string{}, Body: data}
}
