package chunker

import (
	"strings"
	"testing"
)

func TestWindows_SmallTextIsOneWindow(t *testing.T) {
	got := Windows("  # Create Order\nPOST /v1/orders  ", 1000, 100)
	if len(got) != 1 || got[0] != "# Create Order\nPOST /v1/orders" {
		t.Errorf("Windows = %q", got)
	}
	if Windows("   ", 10, 1) != nil {
		t.Error("expected nil for blank text")
	}
}

func TestWindows_LargeTextSplits(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta.\n\n", 200)
	got := Windows(text, 100, 10)
	if len(got) < 2 {
		t.Fatalf("expected several windows, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "alpha") {
		t.Errorf("first window = %q", got[0])
	}
	if !strings.HasSuffix(got[len(got)-1], "delta.") {
		t.Errorf("last window = %q", got[len(got)-1])
	}
	for i, w := range got {
		if EstimateTokens(w) > 150 {
			t.Errorf("window %d too large: %d tokens", i, EstimateTokens(w))
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 for empty text")
	}
	if EstimateTokens("a") != 1 {
		t.Error("expected at least 1 token for non-empty text")
	}
}
