package endpoint

import (
	"regexp"
	"strings"
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// DedupKey is METHOD:apiPath, else METHOD:title_slug, else "" (never deduped).
func DedupKey(c Candidate) string {
	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method == "" {
		return ""
	}
	if path := strings.TrimSpace(c.APIPath); path != "" {
		return method + ":" + path
	}
	if key := TitleKey(c.Title); key != "" {
		return method + ":" + key
	}
	return ""
}

// TitleKey lower-cases a title and collapses every run outside [a-z0-9] to
// "_". Accented and non-Latin letters are not transliterated.
func TitleKey(title string) string {
	return nonAlnumRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "_")
}

// Deduper remembers keys seen within one ingestion batch.
type Deduper struct {
	seen map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Seen records key and reports whether it was already present.
// Empty keys are never duplicates.
func (d *Deduper) Seen(key string) bool {
	if key == "" {
		return false
	}
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}
