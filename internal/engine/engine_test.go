package engine

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

type sliceSource struct {
	toks []Token
	pos  int
}

func (s *sliceSource) NextToken() (Token, error) {
	if s.pos >= len(s.toks) {
		return Token{}, io.EOF
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.pos * 10) }

// {"a": 1, "b": [2.5, "x", null, true], "a": 3}
func sample() *sliceSource {
	return &sliceSource{toks: []Token{
		{Kind: KindBeginObject},
		{Kind: KindKey, String: "a"},
		{Kind: KindNumber, Number: "1"},
		{Kind: KindKey, String: "b"},
		{Kind: KindBeginArray},
		{Kind: KindNumber, Number: "2.5"},
		{Kind: KindString, String: "x"},
		{Kind: KindNull},
		{Kind: KindBool, Bool: true},
		{Kind: KindEndArray},
		{Kind: KindKey, String: "a"},
		{Kind: KindNumber, Number: "3"},
		{Kind: KindEndObject},
	}}
}

func TestDecode_NumberConversions(t *testing.T) {
	cases := []struct {
		name string
		conv NumberConv
		a, f any
	}{
		{"auto", nil, int64(3), 2.5},
		{"float64", NumbersAsFloat64, float64(3), 2.5},
		{"json.Number", NumbersAsJSONNumber, json.Number("3"), json.Number("2.5")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(sample(), tc.conv)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := map[string]any{"a": tc.a, "b": []any{tc.f, "x", nil, true}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	got, err := Decode(sample(), NumbersAsDecimal)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := got.(map[string]any)
	if d := m["a"].(decimal.Decimal); !d.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("want decimal 3, got %v", d)
	}
}

func TestDecode_TruncatedInput(t *testing.T) {
	src := &sliceSource{toks: []Token{{Kind: KindBeginArray}, {Kind: KindNumber, Number: "1"}}}
	if _, err := Decode(src, nil); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want unexpected EOF, got %v", err)
	}
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	var seen []SimpleIssue
	src := WrapWithEnforcement(sample(), EnforceOptions{OnDuplicate: DupWarn, IssueSink: func(si SimpleIssue) { seen = append(seen, si) }})
	if _, err := Decode(src, nil); err != nil {
		t.Fatalf("warn mode must not fail: %v", err)
	}
	if len(seen) != 1 || seen[0].Code != "duplicate_key" || seen[0].Path != "/a" {
		t.Fatalf("unexpected issues: %+v", seen)
	}

	_, err := Decode(WrapWithEnforcement(sample(), EnforceOptions{OnDuplicate: DupError}), nil)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != "duplicate_key" {
		t.Fatalf("want duplicate_key error, got %v", err)
	}
}

func TestEnforce_DepthAndBytes(t *testing.T) {
	_, err := Decode(WrapWithEnforcement(sample(), EnforceOptions{MaxDepth: 1}), nil)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Path != "/b" || ie.Message != "max depth exceeded" {
		t.Fatalf("want depth error at /b, got %v", err)
	}

	_, err = Decode(WrapWithEnforcement(sample(), EnforceOptions{MaxBytes: 25}), nil)
	if !errors.As(err, &ie) || ie.Code != "truncated" {
		t.Fatalf("want truncated, got %v", err)
	}
}

func TestWrapWithEnforcement_DisabledIsIdentity(t *testing.T) {
	src := sample()
	if got := WrapWithEnforcement(src, EnforceOptions{}); got != TokenSource(src) {
		t.Fatalf("disabled enforcement should return the inner source")
	}
}
