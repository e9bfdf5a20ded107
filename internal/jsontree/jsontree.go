// Package jsontree works on decoded JSON values (map[string]any, []any,
// string, json.Number, bool, nil). Numbers are always json.Number so values
// round-trip without float formatting drift.
package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohae/deepcopy"
)

// Object is a decoded JSON object.
type Object = map[string]any

// Decode parses JSON keeping numbers as json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode json: trailing data")
	}
	return v, nil
}

// DecodeString is Decode for strings.
func DecodeString(s string) (any, error) {
	return Decode([]byte(s))
}

// Normalize re-decodes arbitrary Go values (structs, float64 numbers) into the
// canonical tree shape.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return Decode(data)
}

// Copy returns a deep copy of a tree.
func Copy(v any) any {
	if v == nil {
		return nil
	}
	return deepcopy.Copy(v)
}

// CopyObject deep-copies an object, returning an empty object for nil.
func CopyObject(o Object) Object {
	if o == nil {
		return Object{}
	}
	c, _ := deepcopy.Copy(o).(Object)
	return c
}

// AsObject returns v as an object, or nil.
func AsObject(v any) Object {
	o, _ := v.(Object)
	return o
}

// IsContainer reports whether v is an object or array.
func IsContainer(v any) bool {
	switch v.(type) {
	case Object, []any:
		return true
	}
	return false
}

// Text returns the textual form of a scalar. Containers and null report false.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}

// TextOr returns the trimmed text of a non-blank string, else fallback.
func TextOr(v any, fallback string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return fallback
}

// Canonical renders v as compact JSON with object keys sorted.
func Canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// Lookup walks a dot path through objects. Numeric segments index arrays.
// A key holding null is found with a nil value.
func Lookup(tree any, path string) (any, bool) {
	return lookup(tree, path, false)
}

// LookupFold is Lookup with a case-insensitive fallback at every step.
func LookupFold(tree any, path string) (any, bool) {
	return lookup(tree, path, true)
}

func lookup(tree any, path string, fold bool) (any, bool) {
	if path == "" {
		return tree, true
	}
	cur := tree
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case Object:
			v, ok := field(node, seg, fold)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Field reads a key with a case-insensitive fallback.
func Field(o Object, key string) (any, bool) {
	return field(o, key, true)
}

func field(o Object, key string, fold bool) (any, bool) {
	if v, ok := o[key]; ok {
		return v, true
	}
	if !fold {
		return nil, false
	}
	for k, v := range o {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
