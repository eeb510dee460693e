package yamlnode_test

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	eng "github.com/reoring/fastser/internal/engine"
	"github.com/reoring/fastser/source/yamlnode"
)

func node(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &n); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	return &n
}

func TestDecodeThroughEngine(t *testing.T) {
	doc := "a: x\nb:\n  c: [1, y, 2.5]\nd: ~\ne: false\nbig: 18446744073709551615\nwhen: 2024-01-02\n"
	got, err := eng.Decode(yamlnode.New(node(t, doc)), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"a":    "x",
		"b":    map[string]any{"c": []any{int64(1), "y", 2.5}},
		"d":    nil,
		"e":    false,
		"big":  uint64(18446744073709551615),
		"when": "2024-01-02",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateKeysReachEnforcement(t *testing.T) {
	src := eng.WrapWithEnforcement(yamlnode.New(node(t, "a: 1\nb: {c: 1, c: 2}\n")), eng.EnforceOptions{OnDuplicate: eng.DupError})
	_, err := eng.Decode(src, nil)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Path != "/b/c" || ie.Code != "duplicate_key" {
		t.Fatalf("want duplicate_key at /b/c, got %v", err)
	}
}

func TestAliasesAndErrors(t *testing.T) {
	got, err := eng.Decode(yamlnode.New(node(t, "x: &v [1]\ny: *v\n")), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"x": []any{int64(1)}, "y": []any{int64(1)}}, got); diff != "" {
		t.Fatalf("alias mismatch (-want +got):\n%s", diff)
	}

	if _, err := eng.Decode(yamlnode.New(node(t, "? [a]\n: 1\n")), nil); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("want non-scalar key error, got %v", err)
	}

	src := yamlnode.New(node(t, ""))
	tok, err := src.NextToken()
	if err != nil || tok.Kind != eng.KindNull {
		t.Fatalf("empty document should be null, got %v %v", tok, err)
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		t.Fatalf("want EOF, got %v", err)
	}
}
