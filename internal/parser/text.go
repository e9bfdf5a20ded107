package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/docmock/internal/doctree"
)

// TextParser handles plain text files. Numbered and API-led lines become headings.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	var b sectionBuilder
	b.lines(string(data))
	return newDocument(filename, b.sections), nil
}
