package parser

import (
	"strings"
	"testing"
)

func TestTextParser_HeadingLines(t *testing.T) {
	input := "Overview of the service\n\n1.1 Create Order\nPOST /v1/orders\nAPI Get Order\nGET /v1/orders/1\nok\n"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "spec.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(doc.Sections), doc.Sections)
	}
	want := []struct{ title, content string }{
		{"Document", "Overview of the service"},
		{"1.1 Create Order", "POST /v1/orders"},
		{"API Get Order", "GET /v1/orders/1\nok"},
	}
	for i, w := range want {
		if doc.Sections[i].Title != w.title || doc.Sections[i].Content != w.content {
			t.Errorf("section %d = %+v, want %q/%q", i, doc.Sections[i], w.title, w.content)
		}
	}
}

func TestLooksLikeHeading(t *testing.T) {
	tests := map[string]bool{
		"2.3 Refund":     true,
		"接口说明":           true,
		"Interface list": true,
		"API":            true,
		"AP":             false,
		"plain sentence": false,
	}
	for in, want := range tests {
		if got := looksLikeHeading(in); got != want {
			t.Errorf("looksLikeHeading(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestForFile(t *testing.T) {
	if _, err := ForFile("notes.xyz"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, ok := mustParser(t, "a.DOCX").(*DOCXParser); !ok {
		t.Error("expected docx parser for upper-case extension")
	}
	if !IsSupportedExtension("x.htm") {
		t.Error("expected .htm to be supported")
	}
}

func mustParser(t *testing.T, name string) Parser {
	t.Helper()
	p, err := ForFile(name)
	if err != nil {
		t.Fatalf("ForFile(%q): %v", name, err)
	}
	return p
}
