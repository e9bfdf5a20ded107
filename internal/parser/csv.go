package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docmock/internal/doctree"
)

// CSVParser handles CSV files, e.g. exported endpoint catalogues.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return newDocument(filename, nil), nil
	}

	headers := records[0]
	data := records[1:]

	// Batches keep each section's table small enough for one prompt.
	var b sectionBuilder
	for i := 0; i < len(data); i += csvBatchSize {
		end := min(i+csvBatchSize, len(data))
		b.heading(fmt.Sprintf("Rows %d-%d", i+2, end+1), 1)
		b.table(doctree.Table{Headers: headers, Rows: data[i:end]})
	}
	if len(data) == 0 {
		b.table(doctree.Table{Headers: headers})
	}
	return newDocument(filename, b.sections), nil
}
