package chunker

import (
	"strings"
	"testing"

	"github.com/dgallion1/docmock/internal/classify"
	"github.com/dgallion1/docmock/internal/doctree"
)

func sampleSections() []doctree.Section {
	return []doctree.Section{
		{Title: "Document History", Content: "Revision 1.0 approved"},
		{Title: "Introduction", Content: "Base URL https://api.example.com"},
		{Title: "4.1 API Create Order"},
		{Title: "Request Body", Content: `{"orderId":"1"}`},
		{Title: "4.2 API Get Order", Content: "GET /v1/orders/{id}"},
		{
			Title:  "Response Body",
			Tables: []doctree.Table{{Headers: []string{"Field", "Type"}, Rows: [][]string{{"id", "int"}}}},
		},
	}
}

func TestChunk_SplitsOnBoundaries(t *testing.T) {
	chunks := Chunk(sampleSections(), classify.DefaultRules())
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}

	if chunks[0].Title != "Introduction" {
		t.Errorf("leading chunk title = %q", chunks[0].Title)
	}
	if chunks[1].Title != "4.1 API Create Order" {
		t.Errorf("second chunk title = %q", chunks[1].Title)
	}
	if !strings.HasPrefix(chunks[1].Text, "# Request Body\n") {
		t.Errorf("second chunk text = %q", chunks[1].Text)
	}
	if chunks[2].Title != "4.2 API Get Order" {
		t.Errorf("third chunk title = %q", chunks[2].Title)
	}
	if !strings.Contains(chunks[2].Text, "# 4.2 API Get Order\n") || !strings.Contains(chunks[2].Text, "# Response Body\n") {
		t.Errorf("third chunk text = %q", chunks[2].Text)
	}
	if chunks[2].TableCount != 1 {
		t.Errorf("third chunk table count = %d, want 1", chunks[2].TableCount)
	}
}

func TestChunk_NoiseNeverContributes(t *testing.T) {
	for _, c := range Chunk(sampleSections(), classify.DefaultRules()) {
		if strings.Contains(c.Text, "Document History") {
			t.Errorf("noise leaked into chunk %q", c.Title)
		}
	}
}

func TestChunk_LeadingChunkDefaultsToDocument(t *testing.T) {
	chunks := Chunk([]doctree.Section{{Content: "see /v1/ping"}}, classify.DefaultRules())
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Title != DefaultTitle {
		t.Errorf("title = %q, want %q", chunks[0].Title, DefaultTitle)
	}
}

func TestChunk_EmptyBoundaryDropped(t *testing.T) {
	chunks := Chunk([]doctree.Section{{Title: "Create Order"}}, classify.DefaultRules())
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %+v", chunks)
	}
	if Chunk(nil, classify.DefaultRules()) != nil {
		t.Error("expected nil for no sections")
	}
}

func TestDocument_JoinsRelevantSections(t *testing.T) {
	text := Document(sampleSections(), classify.DefaultRules())
	if strings.Contains(text, "Document History") {
		t.Error("noise in document text")
	}
	if !strings.Contains(text, "# Introduction\n") || !strings.Contains(text, "# Response Body\n") {
		t.Errorf("document text = %q", text)
	}
}
