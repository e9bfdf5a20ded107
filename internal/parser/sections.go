package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docmock/internal/doctree"
)

// leadingTitle names the section that collects content seen before any heading.
const leadingTitle = "Document"

var numberedHeading = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\s+(.+)$`)

// looksLikeHeading recognises headings in formats without heading markup:
// numbered lines ("4.1 Create Order") and lines led by API/Interface/接口.
func looksLikeHeading(line string) bool {
	if len(line) <= 2 {
		return false
	}
	if numberedHeading.MatchString(line) {
		return true
	}
	return strings.HasPrefix(line, "接口") || strings.HasPrefix(line, "API") || strings.HasPrefix(line, "Interface")
}

// sectionBuilder accumulates sections in reading order.
type sectionBuilder struct {
	sections []doctree.Section
}

func (b *sectionBuilder) heading(title string, level int) {
	b.sections = append(b.sections, doctree.Section{Title: strings.TrimSpace(title), Level: level})
}

// current returns the open section, opening the leading one if needed.
func (b *sectionBuilder) current() *doctree.Section {
	if len(b.sections) == 0 {
		b.sections = append(b.sections, doctree.Section{Title: leadingTitle})
	}
	return &b.sections[len(b.sections)-1]
}

func (b *sectionBuilder) text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	s := b.current()
	if s.Content == "" {
		s.Content = t
		return
	}
	s.Content += "\n" + t
}

func (b *sectionBuilder) table(t doctree.Table) {
	if len(t.Headers) == 0 && len(t.Rows) == 0 {
		return
	}
	s := b.current()
	s.Tables = append(s.Tables, t)
}

// lines splits plain text into sections, promoting heading-like lines.
func (b *sectionBuilder) lines(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = cleanText(line)
		if line == "" {
			continue
		}
		if looksLikeHeading(line) {
			b.heading(line, 1)
			continue
		}
		b.text(line)
	}
}

// tableFromRows treats the first row as headers.
func tableFromRows(rows [][]string) doctree.Table {
	if len(rows) == 0 {
		return doctree.Table{}
	}
	return doctree.Table{Headers: rows[0], Rows: rows[1:]}
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\u0007", "", "\r", "").Replace(s))
}
