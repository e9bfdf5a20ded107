package extract

import (
	"errors"
	"testing"

	"github.com/dgallion1/docmock/internal/jsontree"
)

func TestReadLoosely_PlainJSON(t *testing.T) {
	v, err := ReadLoosely(`{"title":"Get Order"}`)
	if err != nil {
		t.Fatalf("ReadLoosely: %v", err)
	}
	if jsontree.AsObject(v)["title"] != "Get Order" {
		t.Errorf("got %v", v)
	}
}

func TestReadLoosely_CodeFenceAndProse(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"title\":\"A\"},{\"title\":\"B\"}]\n```\nDone."
	v, err := ReadLoosely(raw)
	if err != nil {
		t.Fatalf("ReadLoosely: %v", err)
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected two items, got %#v", v)
	}
}

func TestReadLoosely_TruncatedArrayKeepsCompleteObjects(t *testing.T) {
	raw := `[{"title":"A","body":{"x":"]"}},{"title":"B"},{"title":"C","requestExa`
	v, err := ReadLoosely(raw)
	if err != nil {
		t.Fatalf("ReadLoosely: %v", err)
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected the two complete items, got %#v", v)
	}
	if jsontree.AsObject(arr[1])["title"] != "B" {
		t.Errorf("second item = %v", arr[1])
	}
}

func TestReadLoosely_PrefersTitledArray(t *testing.T) {
	raw := `Fields ["a","b","c","d","e","f"] then [{"title":"Create Order"}]`
	v, err := ReadLoosely(raw)
	if err != nil {
		t.Fatalf("ReadLoosely: %v", err)
	}
	arr := v.([]any)
	if len(arr) != 1 || jsontree.AsObject(arr[0])["title"] != "Create Order" {
		t.Errorf("got %#v", v)
	}
}

func TestReadLoosely_ObjectInProse(t *testing.T) {
	v, err := ReadLoosely(`Sure! {"items": []} hope that helps`)
	if err != nil {
		t.Fatalf("ReadLoosely: %v", err)
	}
	if _, ok := jsontree.AsObject(v)["items"]; !ok {
		t.Errorf("got %#v", v)
	}
}

func TestReadLoosely_NoJSON(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here", "{broken"} {
		if _, err := ReadLoosely(raw); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ReadLoosely(%q) error = %v, want ErrNoJSON", raw, err)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := stripCodeFence("```json\n{}\n```"); got != "{}" {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFence("{}"); got != "{}" {
		t.Errorf("got %q", got)
	}
}

func TestParseCandidates_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"array", `[{"title":"A"},{"title":"B"},3]`, 2},
		{"items", `{"items":[{"title":"A"}]}`, 1},
		{"single", `{"title":"A","method":"GET"}`, 1},
		{"empty items", `{"items":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidates(tt.raw, "Fallback")
			if err != nil {
				t.Fatalf("ParseCandidates: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseCandidates_FallbackTitle(t *testing.T) {
	got, err := ParseCandidates(`[{"method":"post"}]`, "Create Order")
	if err != nil {
		t.Fatalf("ParseCandidates: %v", err)
	}
	if got[0].Title != "Create Order" {
		t.Errorf("title = %q", got[0].Title)
	}
}
