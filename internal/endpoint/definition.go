// Package endpoint defines stored mock endpoint definitions and the rules that
// turn an extracted candidate into one.
package endpoint

import (
	"strings"
	"time"

	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/google/uuid"
)

// Response modes.
const (
	ModeExample = "example"
	ModeScript  = "script"
)

// Definition is one persisted mock API operation.
type Definition struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Method               string          `json:"method"`
	APIPath              string          `json:"apiPath,omitempty"`
	MockURL              string          `json:"mockUrl"`
	RequestExample       jsontree.Object `json:"requestExample"`
	ResponseExample      jsontree.Object `json:"responseExample"`
	ErrorResponseExample any             `json:"errorResponseExample,omitempty"`
	RequiredFields       []string        `json:"requiredFields"`
	ErrorHTTPStatus      *int            `json:"errorHttpStatus,omitempty"`
	ResponseDelayMs      *int            `json:"responseDelayMs,omitempty"`
	ResponseMode         string          `json:"responseMode"`
	ResponseScript       string          `json:"responseScript,omitempty"`
	SceneID              string          `json:"sceneId,omitempty"`
	SceneName            string          `json:"sceneName,omitempty"`
	SourceFileID         string          `json:"sourceFileId,omitempty"`
	SourceFileName       string          `json:"sourceFileName,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// IsScript reports whether responses come from the user script.
func (d *Definition) IsScript() bool {
	return d.ResponseMode == ModeScript && strings.TrimSpace(d.ResponseScript) != ""
}

// ErrorStatus is the configured error status when it is a valid HTTP code,
// else 200.
func (d *Definition) ErrorStatus() int {
	if d.ErrorHTTPStatus != nil && *d.ErrorHTTPStatus >= 100 && *d.ErrorHTTPStatus <= 599 {
		return *d.ErrorHTTPStatus
	}
	return 200
}

// Delay is the configured response delay, zero when unset.
func (d *Definition) Delay() time.Duration {
	if d.ResponseDelayMs == nil || *d.ResponseDelayMs <= 0 {
		return 0
	}
	return time.Duration(*d.ResponseDelayMs) * time.Millisecond
}

// Candidate is an endpoint as proposed by an extractor, before normalization.
type Candidate struct {
	Title                string
	Method               string
	APIPath              string
	RequestExample       any
	ResponseExample      any
	ErrorResponseExample any
	RequiredFields       []string
	ErrorHTTPStatus      *int
	ResponseDelayMs      *int
}

// NewID returns a dashless random UUID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeMethod upper-cases a method; anything but GET becomes POST.
func NormalizeMethod(m string) string {
	if strings.EqualFold(strings.TrimSpace(m), "GET") {
		return "GET"
	}
	return "POST"
}

// MockURL is "/mock" + apiPath when a path is known, else the id route.
func MockURL(id, apiPath string) string {
	if apiPath != "" {
		return "/mock" + apiPath
	}
	return "/parse/mock/" + id
}

// asEnvelope shapes an example as an object. Scalars and arrays go under body.
func asEnvelope(v any) jsontree.Object {
	switch t := v.(type) {
	case nil:
		return jsontree.Object{}
	case jsontree.Object:
		return t
	default:
		return jsontree.Object{"body": t}
	}
}
