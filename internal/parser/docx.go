package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgallion1/docmock/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files: heading-styled or heading-like paragraphs
// open sections, tables attach to the open section.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt and size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "docmock-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var b sectionBuilder
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(v)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(v); level > 0 {
				b.heading(text, level)
			} else if looksLikeHeading(text) {
				b.heading(text, 1)
			} else {
				b.text(text)
			}
		case *docx.Table:
			b.table(docxTable(v))
		}
	}
	return newDocument(filename, b.sections), nil
}

// docxHeadingLevel reads "Heading2" / "heading 2" style names. A heading style
// without a number counts as level 1.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.TrimSpace(para.Properties.Style.Val))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(style, "heading")))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return cleanText(buf.String())
}

func docxTable(t *docx.Table) doctree.Table {
	var rows [][]string
	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if text := docxParagraphText(para); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, "\n"))
		}
		rows = append(rows, cells)
	}
	return tableFromRows(rows)
}
