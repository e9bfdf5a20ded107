package extract

import (
	"errors"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
	"github.com/tidwall/gjson"
)

// ErrNoJSON means no JSON value could be recovered from a model answer.
var ErrNoJSON = errors.New("no json found in model output")

// ReadLoosely recovers a JSON value from model output that may wrap it in
// prose or code fences, or cut it off mid-array. It tries, in order: the whole
// text, then whichever of the best array or the first balanced object starts
// earlier, then the other.
func ReadLoosely(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrNoJSON
	}
	if v, err := jsontree.DecodeString(trimmed); err == nil {
		return v, nil
	}
	cleaned := stripCodeFence(trimmed)
	obj := strings.IndexByte(cleaned, '{')
	arr := strings.IndexByte(cleaned, '[')
	if obj >= 0 && (arr < 0 || obj < arr) {
		if v, ok := decodeObject(cleaned); ok {
			return v, nil
		}
		if v, ok := decodeArray(cleaned); ok {
			return v, nil
		}
		return nil, ErrNoJSON
	}
	if v, ok := decodeArray(cleaned); ok {
		return v, nil
	}
	if v, ok := decodeObject(cleaned); ok {
		return v, nil
	}
	return nil, ErrNoJSON
}

func decodeArray(text string) (any, bool) {
	arr := extractJSONArray(text)
	if arr == "" {
		return nil, false
	}
	v, err := jsontree.DecodeString(arr)
	if err != nil {
		return nil, false
	}
	_, ok := v.([]any)
	return v, ok
}

func decodeObject(text string) (any, bool) {
	obj := extractJSONObject(text)
	if obj == "" {
		return nil, false
	}
	v, err := jsontree.DecodeString(obj)
	return v, err == nil
}

// extractJSONArray considers every '[' in text. Complete arrays are taken as
// they are; an array cut off mid-way is closed after its last complete
// element object. Arrays of objects with a "title" win over the rest, then the
// longest.
func extractJSONArray(text string) string {
	best, bestTitled := "", false
	for start := strings.IndexByte(text, '['); start >= 0; {
		candidate := ""
		if end := matchClose(text, start, '[', ']'); end > start {
			candidate = text[start : end+1]
		} else if last := lastCompleteElement(text, start); last > start {
			candidate = text[start:last+1] + "]"
		}
		if candidate != "" && gjson.Valid(candidate) {
			titled := gjson.Get(candidate, "#.title").IsArray() && len(gjson.Get(candidate, "#.title").Array()) > 0
			switch {
			case titled && !bestTitled, titled == bestTitled && len(candidate) > len(best):
				best, bestTitled = candidate, titled
			}
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return best
}

// extractJSONObject returns the first balanced {...} in text.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	if end := matchClose(text, start, '{', '}'); end > start {
		return text[start : end+1]
	}
	return ""
}

// matchClose returns the index of the bracket closing text[start], or -1.
// Brackets inside string literals are ignored.
func matchClose(text string, start int, open, close byte) int {
	depth := 0
	var sc stringScanner
	for i := start; i < len(text); i++ {
		if sc.step(text[i]) {
			continue
		}
		switch text[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// lastCompleteElement finds the last '}' closing an object that sits directly
// inside the array opened at text[start].
func lastCompleteElement(text string, start int) int {
	depth, last := 0, -1
	var sc stringScanner
	for i := start; i < len(text); i++ {
		if sc.step(text[i]) {
			continue
		}
		switch text[i] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 1 && text[i] == '}' {
				last = i
			}
			if depth <= 0 {
				return last
			}
		}
	}
	return last
}

// stringScanner tracks whether the scan is inside a quoted string. Both quote
// styles count since models sometimes emit single-quoted JSON.
type stringScanner struct {
	quote   byte
	escaped bool
}

// step consumes c and reports whether it belongs to a string literal.
func (s *stringScanner) step(c byte) bool {
	if s.quote == 0 {
		if c == '"' || c == '\'' {
			s.quote = c
			return true
		}
		return false
	}
	switch {
	case s.escaped:
		s.escaped = false
	case c == '\\':
		s.escaped = true
	case c == s.quote:
		s.quote = 0
	}
	return true
}

// stripCodeFence drops a leading ```lang line and a trailing ```.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
			cleaned = cleaned[nl+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "```")
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
