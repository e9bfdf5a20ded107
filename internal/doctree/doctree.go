package doctree

import "strings"

// Document is a parsed source file flattened into its sections in reading order.
type Document struct {
	FileName string
	FileType string // lower-case extension without the dot, e.g. "docx"
	Title    string
	Sections []Section
}

// Section is one heading plus the prose and tables that follow it.
// Identity is position in Document.Sections.
type Section struct {
	Title   string
	Level   int // heading depth, 0 when the parser could not tell
	Content string
	Tables  []Table
}

// Table keeps headers and rows exactly as read. Rows may be ragged.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Chunk is the text of one candidate API operation, ready for extraction.
type Chunk struct {
	Title      string
	Text       string
	TableCount int
}

// Empty reports whether the section carries nothing to classify.
func (s Section) Empty() bool {
	return strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Content) == "" && len(s.Tables) == 0
}
