package classify

import (
	"reflect"
	"testing"

	"github.com/dgallion1/docmock/internal/doctree"
)

func TestIsNoise_DocumentHistory(t *testing.T) {
	s := doctree.Section{Title: "Document History", Content: "v1.0 initial draft"}
	if !IsNoise(s) {
		t.Fatal("expected document history to be noise")
	}
	if DefaultRules().IsRelevant(s) {
		t.Error("noise must never be relevant")
	}
	if IsEndpointBoundary(s) {
		t.Error("noise must never be a boundary")
	}
}

func TestIsNoise_TableOfContentsLeader(t *testing.T) {
	s := doctree.Section{Title: "Overview", Content: "Introduction ........ 3\nCreate Order ........ 7"}
	if !IsNoise(s) {
		t.Error("expected dotted leader with page number to be noise")
	}
}

func TestIsNoise_ContentTypeTitleIsNotNoise(t *testing.T) {
	s := doctree.Section{Title: "Content Type", Content: "application/json"}
	if IsNoise(s) {
		t.Error("content type heading should not be treated as a table of contents")
	}
}

func TestIsRelevant_Keyword(t *testing.T) {
	s := doctree.Section{Title: "Subscriber", Content: "The MSISDN must be valid"}
	if DefaultRules().IsRelevant(s) {
		t.Fatal("expected no relevance without keywords")
	}
	r, err := NewRules([]string{"msisdn"}, "")
	if err != nil {
		t.Fatalf("NewRules: %v", err)
	}
	if !r.IsRelevant(s) {
		t.Error("expected keyword match to make the section relevant")
	}
}

func TestIsRelevant_URLAndVocabulary(t *testing.T) {
	r := DefaultRules()
	if !r.IsRelevant(doctree.Section{Title: "Orders", Content: "POST /v1/orders"}) {
		t.Error("expected url token to make the section relevant")
	}
	if !r.IsRelevant(doctree.Section{Title: "请求示例"}) {
		t.Error("expected chinese sample vocabulary to make the section relevant")
	}
	if r.IsRelevant(doctree.Section{Title: "Scope", Content: "This chapter describes the scope"}) {
		t.Error("expected plain prose to be irrelevant")
	}
}

func TestIsRelevant_APITable(t *testing.T) {
	s := doctree.Section{
		Title:  "Fields",
		Tables: []doctree.Table{{Headers: []string{"Field", "Data Type"}, Rows: [][]string{{"id", "int"}}}},
	}
	if !DefaultRules().IsRelevant(s) {
		t.Error("expected a data type table to be relevant")
	}
}

func TestLooksLikeAPITable(t *testing.T) {
	tests := []struct {
		name  string
		table doctree.Table
		want  bool
	}{
		{"mo column", doctree.Table{Headers: []string{"Name", "MO"}}, true},
		{"mode column", doctree.Table{Headers: []string{"Mode"}, Rows: [][]string{{"fast"}}}, false},
		{"length column", doctree.Table{Headers: []string{"Length"}}, true},
		{"cell vocabulary", doctree.Table{Headers: []string{"A"}, Rows: [][]string{{"Request id"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeAPITable(tt.table); got != tt.want {
				t.Errorf("LooksLikeAPITable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEndpointBoundary(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"4.1 API Get Order", true},
		{"Create Order", true},
		{"Order API", true},
		{"Request Headers", false},
		{"API Name: Create Order", false},
		{"v1.2 Updated API list", false},
		{"Added new API for refunds", false},
		{"Annex A API errors", false},
		{"orderId String 32 Required order number", false},
		{"List of all API calls in this release", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := IsEndpointBoundary(doctree.Section{Title: tt.title}); got != tt.want {
				t.Errorf("IsEndpointBoundary(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestIsEndpointSection_NumberedOperationWords(t *testing.T) {
	if !IsEndpointSection("3.2 Order status") {
		t.Error("expected numbered heading with an operation word to be an endpoint section")
	}
	if IsEndpointSection("3.2 Glossary") {
		t.Error("expected numbered glossary heading not to be an endpoint section")
	}
}

func TestLooksLikeTableRowTitle(t *testing.T) {
	if !LooksLikeTableRowTitle("orderId String 32 Required order number") {
		t.Error("expected flattened table row to be detected")
	}
	if LooksLikeTableRowTitle("Get Order Type") {
		t.Error("short heading should not be a table row")
	}
}

func TestIsStrongAPITitle(t *testing.T) {
	if !IsStrongAPITitle("2.3 API Refund") {
		t.Error("expected numbered api heading to be strong")
	}
	if IsStrongAPITitle("Some very long description of the api usage") {
		t.Error("expected long prose heading to be weak")
	}
}

func TestWithKeywords_PrependsAndKeepsBase(t *testing.T) {
	base, err := NewRules([]string{"b"}, "")
	if err != nil {
		t.Fatalf("NewRules: %v", err)
	}
	scene := base.WithKeywords([]string{"A", "b"})
	if !reflect.DeepEqual(scene.Keywords, []string{"a", "b"}) {
		t.Errorf("scene keywords = %v", scene.Keywords)
	}
	if !reflect.DeepEqual(base.Keywords, []string{"b"}) {
		t.Errorf("base keywords changed: %v", base.Keywords)
	}
}

func TestParseKeywords(t *testing.T) {
	got := ParseKeywords(" Foo, ,bar,foo")
	if !reflect.DeepEqual(got, []string{"foo", "bar"}) {
		t.Errorf("ParseKeywords = %v", got)
	}
	if ParseKeywords("  ") != nil {
		t.Error("expected nil for blank input")
	}
}

func TestNewRules_BadPattern(t *testing.T) {
	if _, err := NewRules(nil, "("); err == nil {
		t.Error("expected error for invalid url pattern")
	}
}
