package gojson_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	eng "github.com/reoring/fastser/internal/engine"
	"github.com/reoring/fastser/source/gojson"
)

func TestTokens_KeysAndValues(t *testing.T) {
	src := gojson.NewBytes([]byte(`{"a":"x","b":{"c":[1,"y"]},"d":null,"e":false}`))
	var kinds []eng.Kind
	var texts []string
	for {
		tok, err := src.NextToken()
		if err != nil {
			break
		}
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.String+tok.Number)
	}
	want := []eng.Kind{
		eng.KindBeginObject,
		eng.KindKey, eng.KindString,
		eng.KindKey, eng.KindBeginObject, eng.KindKey, eng.KindBeginArray, eng.KindNumber, eng.KindString, eng.KindEndArray, eng.KindEndObject,
		eng.KindKey, eng.KindNull,
		eng.KindKey, eng.KindBool,
		eng.KindEndObject,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if texts[1] != "a" || texts[5] != "c" || texts[7] != "1" || texts[11] != "d" {
		t.Fatalf("unexpected token texts: %q", texts)
	}
}

func TestDecodeThroughEngine(t *testing.T) {
	got, err := eng.Decode(gojson.NewReader(strings.NewReader(`{"n": 12345678901234567890, "f": 0.5}`)), eng.NumbersAsJSONNumber)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"n": json.Number("12345678901234567890"), "f": json.Number("0.5")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
