package mock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/dgallion1/docmock/internal/script"
	"github.com/dgallion1/docmock/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.CachedStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "mock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	c, err := store.NewCachedStore(s, 16)
	require.NoError(t, err)
	return c
}

func userDefinition() *endpoint.Definition {
	return &endpoint.Definition{
		ID:              "u1",
		Title:           "Get User",
		Method:          "GET",
		APIPath:         "/users/{id}",
		MockURL:         "/mock/users/{id}",
		RequestExample:  jsontree.Object{"query": jsontree.Object{"id": "1"}},
		ResponseExample: jsontree.Object{"body": jsontree.Object{"id": "1", "name": "Ann"}},
		RequiredFields:  []string{"query.id"},
		ResponseMode:    endpoint.ModeExample,
		SourceFileName:  "users.md",
	}
}

type fakeRegen struct {
	answer any
	err    error
	calls  int
}

func (f *fakeRegen) Regenerate(context.Context, jsontree.Object, jsontree.Object) (any, error) {
	f.calls++
	return f.answer, f.err
}

type fakeEvaluator struct {
	out jsontree.Object
	err error
}

func (f fakeEvaluator) Evaluate(context.Context, string, jsontree.Object) (jsontree.Object, error) {
	return f.out, f.err
}

func TestServe_SubstitutionThenCacheHit(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	require.NoError(t, st.SaveDefinition(ctx, d))
	syn := NewSynthesizer(st, st, nil, nil, Options{}, nil)

	req := Request{Query: jsontree.Object{"id": "7"}}
	first, err := syn.Serve(ctx, d, req)
	require.NoError(t, err)
	assert.Equal(t, 200, first.Status)
	assert.JSONEq(t, `{"id":"7","name":"Ann"}`, string(first.Body))

	second, err := syn.Serve(ctx, d, req)
	require.NoError(t, err)
	assert.Equal(t, first.Body, second.Body)

	stats, err := st.LogStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MockGen)
	assert.Equal(t, 1, stats.MockHit)

	other, err := syn.Serve(ctx, d, Request{Query: jsontree.Object{"id": "8"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"8","name":"Ann"}`, string(other.Body))
}

func TestServe_ValidationFailure(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	syn := NewSynthesizer(st, st, nil, nil, Options{}, nil)

	resp, err := syn.Serve(ctx, d, Request{})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.Status)
	assert.JSONEq(t, `{"error":"validation_failed","missing":["query.id"]}`, string(resp.Body))

	stats, err := st.LogStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MockValidationFail)
}

func TestServe_ErrorSentinelWinsOverValidation(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	status := 502
	d.ErrorHTTPStatus = &status
	d.ErrorResponseExample = jsontree.Object{"code": "", "errorMessage": ""}
	syn := NewSynthesizer(st, st, nil, nil, Options{}, nil)

	resp, err := syn.Serve(ctx, d, Request{Body: jsontree.Object{"__mock_error_code": "E1"}})
	require.NoError(t, err)
	assert.Equal(t, 502, resp.Status)
	assert.Equal(t, `{"code":"E1","errorMessage":"mock error"}`, string(resp.Body))

	stats, err := st.LogStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MockError)
	assert.Equal(t, 0, stats.MockValidationFail)
}

func TestServe_RegenerationAndFallback(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	require.NoError(t, st.SaveDefinition(ctx, d))

	regen := &fakeRegen{answer: jsontree.Object{"body": jsontree.Object{"id": "7", "name": "Zed"}}}
	syn := NewSynthesizer(st, st, regen, nil, Options{Regenerate: true}, nil)
	resp, err := syn.Serve(ctx, d, Request{Query: jsontree.Object{"id": "7"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","name":"Zed"}`, string(resp.Body))

	failing := &fakeRegen{err: errors.New("model down")}
	syn = NewSynthesizer(st, st, failing, nil, Options{Regenerate: true}, nil)
	resp, err = syn.Serve(ctx, d, Request{Query: jsontree.Object{"id": "9"}})
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.JSONEq(t, `{"id":"9","name":"Ann"}`, string(resp.Body))
}

func TestServe_Script(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	d.ResponseMode = endpoint.ModeScript
	d.ResponseScript = `return {headers: {"X-Mode": "script"}, body: {user: request.query.id}};`
	syn := NewSynthesizer(st, st, nil, script.NewOttoEvaluator(time.Second), Options{}, nil)

	resp, err := syn.Serve(ctx, d, Request{Query: jsontree.Object{"id": "7"}})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "script", resp.Header["X-Mode"])
	assert.JSONEq(t, `{"user":"7"}`, string(resp.Body))
}

func TestServe_ScriptFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	d := userDefinition()
	d.ResponseMode = endpoint.ModeScript
	d.ResponseScript = "while (true) {}"
	syn := NewSynthesizer(st, st, nil, fakeEvaluator{err: script.ErrTimeout}, Options{}, nil)

	resp, err := syn.Serve(ctx, d, Request{Query: jsontree.Object{"id": "7"}})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.JSONEq(t, `{"id":"1","name":"Ann"}`, string(resp.Body))

	status := 503
	d.ErrorHTTPStatus = &status
	d.ErrorResponseExample = jsontree.Object{"code": "DOWN"}
	resp, err = syn.Serve(ctx, d, Request{Query: jsontree.Object{"id": "7"}})
	require.NoError(t, err)
	assert.Equal(t, 503, resp.Status)
	assert.JSONEq(t, `{"code":"DOWN"}`, string(resp.Body))
}

func TestServe_Delay(t *testing.T) {
	st := newStore(t)
	d := userDefinition()
	delay := 60000
	d.ResponseDelayMs = &delay
	sentinel := Request{Body: jsontree.Object{"__mock_error": true}}

	syn := NewSynthesizer(st, st, nil, nil, Options{MaxDelay: 10 * time.Millisecond}, nil)
	start := time.Now()
	_, err := syn.Serve(context.Background(), d, sentinel)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	syn = NewSynthesizer(st, st, nil, nil, Options{}, nil)
	_, err = syn.Serve(ctx, d, sentinel)
	assert.ErrorIs(t, err, context.Canceled)
}
