package endpoint

import (
	"errors"
	"strings"
	"time"

	"github.com/dgallion1/docmock/internal/jsontree"
)

var (
	ErrDuplicate     = errors.New("duplicate endpoint")
	ErrNotMeaningful = errors.New("endpoint has no usable examples")
)

// Source describes where accepted definitions come from.
type Source struct {
	SceneID        string
	SceneName      string
	SourceFileID   string
	SourceFileName string
	// ByIDOnly forces /parse/mock/{id} URLs (whole-document extraction).
	ByIDOnly bool
}

// Normalizer turns candidates from one ingestion batch into definitions.
// It is not safe for concurrent use.
type Normalizer struct {
	src   Source
	dedup *Deduper
	now   func() time.Time
	newID func() string
}

func NewNormalizer(src Source) *Normalizer {
	return &Normalizer{src: src, dedup: NewDeduper(), now: time.Now, newID: NewID}
}

// Build dedups, filters and completes a candidate. Candidate paths and titles
// are expected to be extracted already.
func (n *Normalizer) Build(c Candidate) (*Definition, error) {
	if n.dedup.Seen(DedupKey(c)) {
		return nil, ErrDuplicate
	}
	if !HasMeaningfulContent(c) {
		return nil, ErrNotMeaningful
	}
	d := n.complete(c)
	if n.src.ByIDOnly {
		d.MockURL = MockURL(d.ID, "")
	}
	return d, nil
}

// BuildManual accepts a hand-written candidate that has a title and at least
// one example.
func (n *Normalizer) BuildManual(c Candidate) (*Definition, error) {
	if strings.TrimSpace(c.Title) == "" {
		return nil, errors.New("title is required")
	}
	if IsDeepEmpty(c.RequestExample) && IsDeepEmpty(c.ResponseExample) && IsDeepEmpty(c.ErrorResponseExample) {
		return nil, ErrNotMeaningful
	}
	d := n.complete(c)
	if n.src.ByIDOnly {
		d.MockURL = MockURL(d.ID, "")
	}
	return d, nil
}

func (n *Normalizer) complete(c Candidate) *Definition {
	now := n.now().UTC()
	id := n.newID()
	req := asEnvelope(jsontree.Copy(c.RequestExample))
	path := strings.TrimSpace(c.APIPath)
	d := &Definition{
		ID:              id,
		Title:           strings.TrimSpace(c.Title),
		Method:          NormalizeMethod(c.Method),
		APIPath:         path,
		MockURL:         MockURL(id, path),
		RequestExample:  req,
		ResponseExample: asEnvelope(jsontree.Copy(c.ResponseExample)),
		RequiredFields:  PruneRequiredFields(c.RequiredFields, req),
		ErrorHTTPStatus: c.ErrorHTTPStatus,
		ResponseDelayMs: c.ResponseDelayMs,
		ResponseMode:    ModeExample,
		SceneID:         n.src.SceneID,
		SceneName:       n.src.SceneName,
		SourceFileID:    n.src.SourceFileID,
		SourceFileName:  n.src.SourceFileName,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if !IsUnset(c.ErrorResponseExample) {
		d.ErrorResponseExample = jsontree.Copy(c.ErrorResponseExample)
	}
	return d
}
