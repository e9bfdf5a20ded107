package endpoint

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// ErrInvalidUpdate wraps every rejected update field.
var ErrInvalidUpdate = errors.New("invalid update")

// ApplyUpdate applies the fields present in patch to d. Examples are repaired
// with FixStringifiedJSON, required fields are pruned against the resulting
// request example, and a null responseDelayMs, errorHttpStatus or
// errorResponseExample clears the value, as does an empty errorResponseExample. d is left untouched on error.
func ApplyUpdate(d *Definition, patch jsontree.Object) error {
	next := *d

	if v, ok := patch["title"]; ok {
		title := strings.TrimSpace(jsontree.TextOr(v, ""))
		if title == "" {
			return fmt.Errorf("%w: title must not be empty", ErrInvalidUpdate)
		}
		next.Title = title
	}
	if v, ok := patch["requestExample"]; ok {
		next.RequestExample = asEnvelope(FixStringifiedJSON(v))
	}
	if v, ok := patch["responseExample"]; ok {
		next.ResponseExample = asEnvelope(FixStringifiedJSON(v))
	}
	if v, ok := patch["errorResponseExample"]; ok {
		next.ErrorResponseExample = nil
		if fixed := FixStringifiedJSON(v); !IsUnset(fixed) {
			next.ErrorResponseExample = fixed
		}
	}

	required := next.RequiredFields
	if v, ok := patch["requiredFields"]; ok {
		list, err := stringList(v)
		if err != nil {
			return err
		}
		required = list
	}
	next.RequiredFields = PruneRequiredFields(required, next.RequestExample)

	if v, ok := patch["responseDelayMs"]; ok {
		n, err := optionalInt("responseDelayMs", v)
		if err != nil {
			return err
		}
		if n != nil && *n < 0 {
			return fmt.Errorf("%w: responseDelayMs must not be negative", ErrInvalidUpdate)
		}
		next.ResponseDelayMs = n
	}
	if v, ok := patch["errorHttpStatus"]; ok {
		n, err := optionalInt("errorHttpStatus", v)
		if err != nil {
			return err
		}
		if n != nil && (*n < 100 || *n > 599) {
			return fmt.Errorf("%w: errorHttpStatus %d is not an HTTP status", ErrInvalidUpdate, *n)
		}
		next.ErrorHTTPStatus = n
	}
	if v, ok := patch["responseMode"]; ok {
		mode := strings.ToLower(strings.TrimSpace(jsontree.TextOr(v, "")))
		if mode != ModeExample && mode != ModeScript {
			return fmt.Errorf("%w: responseMode must be %q or %q", ErrInvalidUpdate, ModeExample, ModeScript)
		}
		next.ResponseMode = mode
	}
	if v, ok := patch["responseScript"]; ok {
		next.ResponseScript = jsontree.TextOr(v, "")
	}

	next.UpdatedAt = time.Now().UTC()
	*d = next
	return nil
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: requiredFields must be an array", ErrInvalidUpdate)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: requiredFields must hold strings", ErrInvalidUpdate)
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func optionalInt(name string, v any) (*int, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n := intField(v)
	if n == nil {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidUpdate, name)
	}
	return n, nil
}
