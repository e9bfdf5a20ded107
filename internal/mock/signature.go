package mock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/dgallion1/docmock/internal/jsontree"
)

// DefaultSignatureKeys are request fields that identify a business object
// even when the definition lists no required fields.
var DefaultSignatureKeys = []string{"id", "msisdn", "orderNo", "order_no", "orderId", "customerId", "accountId"}

// Signer derives cache keys from requests.
type Signer struct {
	keys []string
}

// NewSigner returns a Signer using the default keys plus extra.
func NewSigner(extra ...string) Signer {
	keys := append([]string{}, DefaultSignatureKeys...)
	for _, k := range extra {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return Signer{keys: keys}
}

// Signature hashes the identifying values of a request: the required fields
// plus any common identifier keys present at any depth. A plain key that is
// not at the top level takes its first breadth-first occurrence. Fields the
// request does not carry are skipped. Without any identifying value the
// whole body and query are hashed.
func (s Signer) Signature(required []string, tree jsontree.Object) string {
	fields := collectFields(tree)
	paths := append([]string{}, required...)
	for _, key := range s.keys {
		if _, ok := fields[strings.ToLower(key)]; !ok || covered(paths, key) {
			continue
		}
		paths = append(paths, key)
	}

	var pairs []string
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		v, ok := resolve(tree, path)
		if !ok && !strings.Contains(path, ".") {
			v, ok = fields[strings.ToLower(path)]
		}
		if !ok {
			continue
		}
		pairs = append(pairs, path+"="+signatureValue(v))
	}
	if len(pairs) == 0 {
		return digest(jsontree.Canonical(jsontree.Object{"query": tree["query"], "body": tree["body"]}))
	}
	sort.Strings(pairs)
	return digest(strings.Join(pairs, "&"))
}

func covered(paths []string, key string) bool {
	lower := strings.ToLower(key)
	for _, p := range paths {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == lower || strings.HasSuffix(p, "."+lower) {
			return true
		}
	}
	return false
}

func signatureValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number, bool, float64:
		text, _ := jsontree.Text(t)
		return text
	}
	return jsontree.Canonical(v)
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// collectFields flattens body, query and headers into a lower-cased key map,
// breadth first with sorted keys. The first occurrence of a key wins.
func collectFields(tree jsontree.Object) map[string]any {
	out := make(map[string]any)
	queue := []any{tree["body"], tree["query"], tree["headers"]}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		switch t := node.(type) {
		case jsontree.Object:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				lower := strings.ToLower(k)
				if _, ok := out[lower]; !ok {
					out[lower] = t[k]
				}
				if jsontree.IsContainer(t[k]) {
					queue = append(queue, t[k])
				}
			}
		case []any:
			for _, item := range t {
				if jsontree.IsContainer(item) {
					queue = append(queue, item)
				}
			}
		}
	}
	return out
}
