// Package script runs user response scripts in a JavaScript sandbox. A script
// sees a single global, request, holding {headers, query, body}, and returns
// the response object.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/robertkrimen/otto"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Second

var (
	ErrTimeout     = errors.New("script timed out")
	ErrEmptyScript = errors.New("script is empty")
	ErrNoResult    = errors.New("script returned no object")
)

// Evaluator runs a response script against one request.
type Evaluator interface {
	Evaluate(ctx context.Context, src string, request jsontree.Object) (jsontree.Object, error)
}

// OttoEvaluator evaluates scripts with otto, one fresh VM per call.
type OttoEvaluator struct {
	Timeout time.Duration
}

func NewOttoEvaluator(timeout time.Duration) *OttoEvaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OttoEvaluator{Timeout: timeout}
}

type halt struct{}

type outcome struct {
	text string
	err  error
}

// Evaluate runs src on its own goroutine. On timeout or cancellation the VM
// is interrupted and the goroutine left to unwind.
func (e *OttoEvaluator) Evaluate(ctx context.Context, src string, request jsontree.Object) (jsontree.Object, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptyScript
	}
	if request == nil {
		request = jsontree.Object{}
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)
	if err := vm.Set("__request_json", string(payload)); err != nil {
		return nil, fmt.Errorf("bind request: %w", err)
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if caught := recover(); caught != nil {
				if _, ok := caught.(halt); ok {
					done <- outcome{err: ErrTimeout}
					return
				}
				done <- outcome{err: fmt.Errorf("script panic: %v", caught)}
			}
		}()
		v, err := vm.Run(wrap(src))
		if err != nil {
			done <- outcome{err: fmt.Errorf("run script: %w", err)}
			return
		}
		if !v.IsString() {
			done <- outcome{err: ErrNoResult}
			return
		}
		text, _ := v.ToString()
		done <- outcome{text: text}
	}()

	timer := time.NewTimer(e.timeout())
	defer timer.Stop()
	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		v, err := jsontree.DecodeString(r.text)
		if err != nil {
			return nil, fmt.Errorf("decode script result: %w", err)
		}
		return NormalizeResponse(v)
	case <-timer.C:
		vm.Interrupt <- func() { panic(halt{}) }
		return nil, ErrTimeout
	case <-ctx.Done():
		vm.Interrupt <- func() { panic(halt{}) }
		return nil, ctx.Err()
	}
}

func (e *OttoEvaluator) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

func wrap(src string) string {
	return "var request = JSON.parse(__request_json);\n" +
		"JSON.stringify((function(){\n" + src + "\n})());"
}

// NormalizeResponse shapes a script result as {headers, body}. An object
// without body becomes the body; its headers member, if any, is lifted out.
func NormalizeResponse(v any) (jsontree.Object, error) {
	obj, ok := v.(jsontree.Object)
	if !ok {
		return nil, ErrNoResult
	}
	if _, hasBody := obj["body"]; hasBody {
		out := jsontree.Object{"headers": headersOf(obj), "body": obj["body"]}
		return out, nil
	}
	body := make(jsontree.Object, len(obj))
	for k, val := range obj {
		if k != "headers" {
			body[k] = val
		}
	}
	return jsontree.Object{"headers": headersOf(obj), "body": body}, nil
}

func headersOf(obj jsontree.Object) jsontree.Object {
	if h, ok := obj["headers"].(jsontree.Object); ok {
		return h
	}
	return jsontree.Object{}
}
