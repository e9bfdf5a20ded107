package mock

import (
	"reflect"
	"testing"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
)

func tree(body, query, headers jsontree.Object) jsontree.Object {
	return Request{Headers: headers, Query: query, Body: body}.Tree()
}

func TestSignature_StableUnderUnrelatedFields(t *testing.T) {
	s := NewSigner()
	a := s.Signature(nil, tree(jsontree.Object{"orderId": "A1", "note": "first"}, nil, nil))
	b := s.Signature(nil, tree(jsontree.Object{"note": "second", "orderId": "A1"}, nil, jsontree.Object{"X-Trace": "t"}))
	c := s.Signature(nil, tree(jsontree.Object{"orderId": "A2", "note": "first"}, nil, nil))
	if a != b {
		t.Errorf("unrelated fields changed the signature")
	}
	if a == c {
		t.Errorf("orderId change did not change the signature")
	}
}

func TestSignature_NestedIdentifier(t *testing.T) {
	s := NewSigner()
	order := func(id, ts string) jsontree.Object {
		return tree(jsontree.Object{"order": jsontree.Object{"orderId": id}, "ts": ts}, nil, nil)
	}
	a := s.Signature(nil, order("A", "1"))
	b := s.Signature(nil, order("A", "2"))
	c := s.Signature(nil, order("B", "1"))
	if a != b {
		t.Errorf("nested orderId should sign the same regardless of ts")
	}
	if a == c {
		t.Errorf("nested orderId change did not change the signature")
	}
}

func TestSignature_RequiredFieldsAndFallback(t *testing.T) {
	s := NewSigner()
	req := []string{"body.code"}
	a := s.Signature(req, tree(jsontree.Object{"code": " X "}, nil, nil))
	b := s.Signature(req, tree(jsontree.Object{"code": "X", "other": 1}, nil, nil))
	if a != b {
		t.Errorf("trimmed required value should sign the same")
	}
	x := s.Signature(nil, tree(jsontree.Object{"q": "1"}, nil, nil))
	y := s.Signature(nil, tree(jsontree.Object{"q": "2"}, nil, nil))
	if x == y {
		t.Errorf("fallback hash should cover the whole body")
	}
	if len(x) != 64 {
		t.Errorf("signature length = %d", len(x))
	}
}

func TestSignature_ExtraKeys(t *testing.T) {
	plain := NewSigner()
	custom := NewSigner("tenant")
	one := tree(jsontree.Object{"id": "1", "tenant": "a"}, nil, nil)
	two := tree(jsontree.Object{"id": "1", "tenant": "b"}, nil, nil)
	if plain.Signature(nil, one) != plain.Signature(nil, two) {
		t.Errorf("tenant is not an identifier by default")
	}
	if custom.Signature(nil, one) == custom.Signature(nil, two) {
		t.Errorf("configured key should change the signature")
	}
}

func TestMissing_CrossPartFallback(t *testing.T) {
	required := []string{"body.orderId", "query.page", "headers.X-Token"}
	example := jsontree.Object{
		"headers": jsontree.Object{"X-Token": "t"},
		"query":   jsontree.Object{"page": "1"},
		"body":    jsontree.Object{"orderId": "1"},
	}
	got := Missing(required, tree(jsontree.Object{"page": 2}, nil, jsontree.Object{"x-token": "abc"}), example)
	if !reflect.DeepEqual(got, []string{"body.orderId"}) {
		t.Errorf("Missing = %v", got)
	}
}

func TestMissing_IgnoresFieldsOutsideExample(t *testing.T) {
	example := jsontree.Object{"body": jsontree.Object{"a": "1"}}
	got := Missing([]string{"body.a", "body.b"}, tree(nil, nil, nil), example)
	if !reflect.DeepEqual(got, []string{"body.a"}) {
		t.Errorf("Missing = %v", got)
	}
	if got := Missing([]string{"body.b"}, tree(nil, nil, nil), nil); len(got) != 1 {
		t.Errorf("without an example every field is checked, got %v", got)
	}
}

func TestDetectSentinel(t *testing.T) {
	tests := []struct {
		name   string
		tree   jsontree.Object
		active bool
		code   string
	}{
		{"flag true", tree(jsontree.Object{"__mock_error": true}, nil, nil), true, DefaultErrorCode},
		{"flag false text", tree(jsontree.Object{"__mock_error": "false"}, nil, nil), false, DefaultErrorCode},
		{"flag zero", tree(nil, jsontree.Object{"__mock_error": "0"}, nil), false, DefaultErrorCode},
		{"code in body", tree(jsontree.Object{"__mock_error_code": "E1"}, nil, nil), true, "E1"},
		{"code in header", tree(nil, nil, jsontree.Object{"__Mock_Error_Code": "H9"}), true, "H9"},
		{"top level", jsontree.Object{"__mock_error": "yes"}, true, DefaultErrorCode},
		{"nothing", tree(jsontree.Object{"id": 1}, nil, nil), false, DefaultErrorCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSentinel(tt.tree)
			if got.Active != tt.active || got.Code != tt.code {
				t.Errorf("DetectSentinel = %+v", got)
			}
		})
	}
}

func TestBuildErrorResponse_RewritesCodeAndMessage(t *testing.T) {
	d := &endpoint.Definition{
		ErrorResponseExample: jsontree.Object{
			"code":         "",
			"errorMessage": "",
			"data":         jsontree.Object{"errorCode": "X", "desc": "kept"},
		},
	}
	got := BuildErrorResponse(d, Sentinel{Active: true, Code: "E1", Message: "mock error"})
	want := jsontree.Object{
		"code":         "E1",
		"errorMessage": "mock error",
		"data":         jsontree.Object{"errorCode": "E1", "desc": "kept"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if jsontree.AsObject(d.ErrorResponseExample)["code"] != "" {
		t.Errorf("stored example was mutated")
	}
}

func TestBuildErrorResponse_DefaultBody(t *testing.T) {
	got := BuildErrorResponse(&endpoint.Definition{}, Sentinel{Code: "E2", Message: "boom"})
	want := jsontree.Object{"ErrorCode": "E2", "ErrorDescription": "boom"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v", got)
	}
}

func TestSubstitute(t *testing.T) {
	example := jsontree.Object{"body": jsontree.Object{
		"id":    "1",
		"name":  "Ann",
		"items": []any{jsontree.Object{"ID": "x"}},
	}}
	got := Substitute(example, tree(nil, jsontree.Object{"id": "7"}, nil))
	body := jsontree.AsObject(jsontree.AsObject(got)["body"])
	if body["id"] != "7" || body["name"] != "Ann" {
		t.Errorf("body = %v", body)
	}
	item := jsontree.AsObject(body["items"].([]any)[0])
	if item["ID"] != "7" {
		t.Errorf("nested key should match case-insensitively, got %v", item)
	}
	if jsontree.AsObject(example["body"])["id"] != "1" {
		t.Errorf("example was mutated")
	}
}

func TestEnvelope(t *testing.T) {
	resp, err := Envelope(201, jsontree.Object{
		"headers": jsontree.Object{"X-Count": jsontree.Object{}, "X-Id": 5, "X-Null": nil, "X-Blank": "  ", "X-Empty": ""},
		"body":    []any{"a"},
	})
	if err != nil {
		t.Fatalf("Envelope: %v", err)
	}
	if string(resp.Body) != `["a"]` || resp.Status != 201 {
		t.Errorf("resp = %d %s", resp.Status, resp.Body)
	}
	if !reflect.DeepEqual(resp.Header, map[string]string{"X-Id": "5"}) {
		t.Errorf("headers = %v", resp.Header)
	}

	resp, err = Envelope(200, jsontree.Object{"headers": jsontree.Object{}, "ok": true})
	if err != nil {
		t.Fatalf("Envelope: %v", err)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("body = %s", resp.Body)
	}
}
