// Package chunker folds classified sections into one chunk per candidate API
// operation.
package chunker

import (
	"strings"

	"github.com/dgallion1/docmock/internal/classify"
	"github.com/dgallion1/docmock/internal/doctree"
)

// DefaultTitle names the leading chunk when nothing before the first boundary
// has a title.
const DefaultTitle = "Document"

// Chunk walks sections in order. A boundary section closes the open chunk and
// opens a new one; relevant sections append their formatted text. Noise never
// contributes and never opens a chunk. Chunks that received no text are dropped.
func Chunk(sections []doctree.Section, rules classify.Rules) []doctree.Chunk {
	var (
		chunks  []doctree.Chunk
		current *builder
	)
	flush := func() {
		if current != nil && current.text.Len() > 0 {
			chunks = append(chunks, current.chunk())
		}
		current = nil
	}

	for _, s := range sections {
		if classify.IsNoise(s) {
			continue
		}
		title := strings.TrimSpace(s.Title)
		if classify.IsEndpointBoundary(s) {
			flush()
			current = &builder{title: title}
		}
		if !rules.IsRelevant(s) {
			continue
		}
		formatted := classify.FormatSection(s)
		if strings.TrimSpace(formatted) == "" {
			continue
		}
		if current == nil {
			if title == "" {
				title = DefaultTitle
			}
			current = &builder{title: title}
		}
		current.text.WriteString(formatted)
		current.text.WriteString("\n")
		current.tables += len(s.Tables)
	}
	flush()
	return chunks
}

// Document formats every relevant section of a document into one text, the
// input of whole-document extraction.
func Document(sections []doctree.Section, rules classify.Rules) string {
	var b strings.Builder
	for _, s := range sections {
		if !rules.IsRelevant(s) {
			continue
		}
		formatted := classify.FormatSection(s)
		if strings.TrimSpace(formatted) == "" {
			continue
		}
		b.WriteString(formatted)
		b.WriteString("\n")
	}
	return b.String()
}

type builder struct {
	title  string
	text   strings.Builder
	tables int
}

func (b *builder) chunk() doctree.Chunk {
	return doctree.Chunk{Title: b.title, Text: b.text.String(), TableCount: b.tables}
}
