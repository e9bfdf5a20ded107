package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docmock/internal/chunker"
	"github.com/dgallion1/docmock/internal/classify"
	"github.com/dgallion1/docmock/internal/doctree"
	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
)

// DocumentTitle is the fallback title of candidates from whole-document mode.
const DocumentTitle = "API"

// Extractor asks a Client for endpoint candidates and applies the path and
// title heuristics to what comes back.
type Extractor struct {
	client Client
	log    *slog.Logger
}

func NewExtractor(client Client, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{client: client, log: log}
}

// Chunk extracts the candidates one chunk describes. For a single candidate a
// path found in the chunk text wins over the one the model proposed, and the
// chunk title names it. Several candidates keep their own paths and titles.
func (e *Extractor) Chunk(ctx context.Context, rules classify.Rules, docTitle string, chunk doctree.Chunk) ([]endpoint.Candidate, error) {
	raw, err := e.client.Complete(ctx, BuildChunkPrompt(docTitle, chunk.Text))
	if err != nil {
		return nil, fmt.Errorf("complete chunk %q: %w", chunk.Title, err)
	}
	cands, err := ParseCandidates(raw, chunk.Title)
	if err != nil {
		return nil, fmt.Errorf("parse chunk %q: %w", chunk.Title, err)
	}
	textPath := ExtractAPIPath(chunk.Text, rules)
	if len(cands) > 1 {
		for i := range cands {
			c := &cands[i]
			c.APIPath = NormalizeAPIPath(c.APIPath)
			if c.APIPath == "" {
				c.APIPath = textPath
			}
			c.Title = NormalizeTitle(c.Title, "", c.APIPath)
		}
		return cands, nil
	}
	for i := range cands {
		c := &cands[i]
		title := chunk.Title
		if title == "" || title == chunker.DefaultTitle {
			title = c.Title
		}
		path := textPath
		if path == "" {
			path = NormalizeAPIPath(c.APIPath)
		}
		c.APIPath = path
		c.Title = NormalizeTitle(title, chunk.Text, path)
	}
	return cands, nil
}

// Window extracts every candidate in one window of a whole document.
func (e *Extractor) Window(ctx context.Context, window string, index, total int) ([]endpoint.Candidate, error) {
	raw, err := e.client.Complete(ctx, BuildDocumentPrompt(window, index, total))
	if err != nil {
		return nil, fmt.Errorf("complete window %d/%d: %w", index+1, total, err)
	}
	cands, err := ParseCandidates(raw, DocumentTitle)
	if err != nil {
		return nil, fmt.Errorf("parse window %d/%d: %w", index+1, total, err)
	}
	for i := range cands {
		c := &cands[i]
		c.APIPath = NormalizeAPIPath(c.APIPath)
		c.Title = NormalizeTitle(c.Title, "", c.APIPath)
	}
	return cands, nil
}

// Regenerate asks for a response shaped like responseExample but tailored to
// request. The answer must be a JSON object.
func (e *Extractor) Regenerate(ctx context.Context, request, responseExample jsontree.Object) (any, error) {
	raw, err := e.client.Complete(ctx, BuildRegeneratePrompt(request, responseExample))
	if err != nil {
		return nil, fmt.Errorf("complete regenerate: %w", err)
	}
	v, err := ReadLoosely(raw)
	if err != nil {
		return nil, err
	}
	o, ok := v.(jsontree.Object)
	if !ok {
		return nil, errors.New("regenerated response is not an object")
	}
	return o, nil
}
