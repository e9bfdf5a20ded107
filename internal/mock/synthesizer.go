package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/dgallion1/docmock/internal/script"
	"github.com/dgallion1/docmock/internal/store"
)

// DefaultMaxDelay caps a definition's configured response delay.
const DefaultMaxDelay = 30 * time.Second

// CacheStore reads and writes generated responses.
type CacheStore interface {
	GetCachedResponse(ctx context.Context, mockID, signature string) (*store.CacheEntry, error)
	PutCachedResponse(ctx context.Context, e *store.CacheEntry) error
}

// OpLogger records serving events.
type OpLogger interface {
	AddLog(ctx context.Context, l store.OpLog) error
}

// Regenerator asks a model for a fresh response shaped like the example.
type Regenerator interface {
	Regenerate(ctx context.Context, request, responseExample jsontree.Object) (any, error)
}

type Options struct {
	Regenerate    bool
	MaxDelay      time.Duration
	SignatureKeys []string
}

// Synthesizer builds responses for resolved definitions.
type Synthesizer struct {
	cache   CacheStore
	logs    OpLogger
	regen   Regenerator
	scripts script.Evaluator
	signer  Signer
	opts    Options
	log     *slog.Logger
}

// NewSynthesizer wires a synthesizer. regen may be nil; a nil evaluator
// falls back to otto with the default timeout.
func NewSynthesizer(cache CacheStore, logs OpLogger, regen Regenerator, scripts script.Evaluator, opts Options, log *slog.Logger) *Synthesizer {
	if scripts == nil {
		scripts = script.NewOttoEvaluator(script.DefaultTimeout)
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{
		cache:   cache,
		logs:    logs,
		regen:   regen,
		scripts: scripts,
		signer:  NewSigner(opts.SignatureKeys...),
		opts:    opts,
		log:     log,
	}
}

// Serve answers one call to d. Error simulation wins over validation;
// validation failures are returned without delay. The error is non-nil only
// when the response could not be produced or persisted, or ctx ended.
func (s *Synthesizer) Serve(ctx context.Context, d *endpoint.Definition, req Request) (*Response, error) {
	tree := req.Tree()
	log := s.log.With("mock_id", d.ID)

	if sentinel := DetectSentinel(tree); sentinel.Active {
		resp, err := Envelope(d.ErrorStatus(), BuildErrorResponse(d, sentinel))
		if err != nil {
			return nil, err
		}
		s.record(ctx, log, store.LogMockError, d, "simulated error "+sentinel.Code)
		return s.hold(ctx, d, resp)
	}

	if missing := Missing(d.RequiredFields, tree, d.RequestExample); len(missing) > 0 {
		s.record(ctx, log, store.LogMockValidationFail, d, fmt.Sprintf("missing %v", missing))
		return validationFailure(missing), nil
	}

	var (
		resp *Response
		err  error
	)
	if d.IsScript() {
		resp, err = s.fromScript(ctx, log, d, tree)
	} else {
		resp, err = s.fromCache(ctx, log, d, tree)
	}
	if err != nil {
		return nil, err
	}
	return s.hold(ctx, d, resp)
}

func (s *Synthesizer) fromCache(ctx context.Context, log *slog.Logger, d *endpoint.Definition, tree jsontree.Object) (*Response, error) {
	sig := s.signer.Signature(d.RequiredFields, tree)
	entry, err := s.cache.GetCachedResponse(ctx, d.ID, sig)
	switch {
	case err == nil:
		v, derr := jsontree.DecodeString(entry.ResponseBody)
		if derr == nil {
			s.record(ctx, log, store.LogMockHit, d, "cache hit")
			return Envelope(200, v)
		}
		log.Warn("cached response unreadable, regenerating", "error", derr)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("read response cache: %w", err)
	}

	data, err := json.Marshal(s.generate(ctx, log, d, tree))
	if err != nil {
		log.Warn("generated response not encodable, using example", "error", err)
		if data, err = json.Marshal(d.ResponseExample); err != nil {
			return nil, fmt.Errorf("encode response example: %w", err)
		}
	}
	entry = &store.CacheEntry{
		MockID:       d.ID,
		Signature:    sig,
		RequestBody:  jsontree.Canonical(tree),
		ResponseBody: string(data),
	}
	if err := s.cache.PutCachedResponse(ctx, entry); err != nil {
		return nil, fmt.Errorf("store generated response: %w", err)
	}
	s.record(ctx, log, store.LogMockGen, d, "generated")

	v, err := jsontree.Decode(data)
	if err != nil {
		return nil, err
	}
	return Envelope(200, v)
}

func (s *Synthesizer) generate(ctx context.Context, log *slog.Logger, d *endpoint.Definition, tree jsontree.Object) any {
	if s.opts.Regenerate && s.regen != nil {
		v, err := s.regen.Regenerate(ctx, tree, d.ResponseExample)
		if err == nil {
			return v
		}
		log.Warn("ai regeneration failed, substituting", "error", err)
	}
	return Substitute(d.ResponseExample, tree)
}

func (s *Synthesizer) fromScript(ctx context.Context, log *slog.Logger, d *endpoint.Definition, tree jsontree.Object) (*Response, error) {
	out, err := s.scripts.Evaluate(ctx, d.ResponseScript, tree)
	if err == nil {
		s.record(ctx, log, store.LogMockGen, d, "script")
		return Envelope(200, out)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Warn("script fallback", "error", err)
	if !endpoint.IsDeepEmpty(d.ErrorResponseExample) {
		return Envelope(d.ErrorStatus(), jsontree.Copy(d.ErrorResponseExample))
	}
	return Envelope(200, jsontree.CopyObject(d.ResponseExample))
}

// hold applies the definition's response delay, capped at MaxDelay.
func (s *Synthesizer) hold(ctx context.Context, d *endpoint.Definition, resp *Response) (*Response, error) {
	delay := d.Delay()
	if delay <= 0 {
		return resp, nil
	}
	if delay > s.opts.MaxDelay {
		delay = s.opts.MaxDelay
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Synthesizer) record(ctx context.Context, log *slog.Logger, typ string, d *endpoint.Definition, msg string) {
	if s.logs == nil {
		return
	}
	err := s.logs.AddLog(ctx, store.OpLog{
		Type:           typ,
		MockID:         d.ID,
		SourceFileName: d.SourceFileName,
		Message:        msg,
	})
	if err != nil {
		log.Warn("operation log failed", "type", typ, "error", err)
	}
}
