// Package mock serves stored endpoint definitions: it resolves a call to a
// definition, checks required fields and the error sentinel, and synthesizes
// the response from cache, regeneration, substitution or a user script.
package mock

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// Request is one inbound call.
type Request struct {
	Headers jsontree.Object
	Query   jsontree.Object
	Body    any
}

// NewRequest builds a Request from HTTP parts. Headers and query parameters
// keep their first value. A JSON or form body is decoded; an empty body is {}.
func NewRequest(header http.Header, query url.Values, contentType string, body []byte) (Request, error) {
	r := Request{Headers: jsontree.Object{}, Query: jsontree.Object{}, Body: jsontree.Object{}}
	for name, values := range header {
		if len(values) > 0 {
			r.Headers[name] = values[0]
		}
	}
	for name, values := range query {
		if len(values) > 0 {
			r.Query[name] = values[0]
		}
	}
	if strings.TrimSpace(string(body)) == "" {
		return r, nil
	}
	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return r, fmt.Errorf("decode form body: %w", err)
		}
		obj := jsontree.Object{}
		for name, values := range form {
			if len(values) > 0 {
				obj[name] = values[0]
			}
		}
		r.Body = obj
		return r, nil
	}
	v, err := jsontree.Decode(body)
	if err != nil {
		return r, fmt.Errorf("decode json body: %w", err)
	}
	r.Body = v
	return r, nil
}

// Tree is the request as {headers, query, body}.
func (r Request) Tree() jsontree.Object {
	headers, query := r.Headers, r.Query
	if headers == nil {
		headers = jsontree.Object{}
	}
	if query == nil {
		query = jsontree.Object{}
	}
	var body any = jsontree.Object{}
	if r.Body != nil {
		body = r.Body
	}
	return jsontree.Object{"headers": headers, "query": query, "body": body}
}
