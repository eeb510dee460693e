package engine

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NumberConv turns the literal text of a number token into a Go value.
type NumberConv func(lit string) (any, error)

// NumbersAuto yields int64 for integral literals that fit, uint64 for
// positive ones past int64 and float64 otherwise.
func NumbersAuto(lit string) (any, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return n, nil
		}
		if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
			return u, nil
		}
	}
	return strconv.ParseFloat(lit, 64)
}

// NumbersAsFloat64 decodes every number as float64.
func NumbersAsFloat64(lit string) (any, error) { return strconv.ParseFloat(lit, 64) }

// NumbersAsJSONNumber keeps the literal as json.Number.
func NumbersAsJSONNumber(lit string) (any, error) { return json.Number(lit), nil }

// NumbersAsDecimal decodes every number as decimal.Decimal without precision loss.
func NumbersAsDecimal(lit string) (any, error) { return decimal.NewFromString(lit) }

// Decode builds an "any" tree (map[string]any, []any, scalars) from src.
// A nil conv means NumbersAuto.
func Decode(src TokenSource, conv NumberConv) (any, error) {
	if conv == nil {
		conv = NumbersAuto
	}
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	d := decoder{src: src, conv: conv}
	return d.value(tok)
}

type decoder struct {
	src  TokenSource
	conv NumberConv
}

func (d decoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object()
	case KindBeginArray:
		return d.array()
	case KindString:
		return tok.String, nil
	case KindNumber:
		return d.conv(tok.Number)
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func (d decoder) object() (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, eofIsUnexpected(err)
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := d.src.NextToken()
		if err != nil {
			return nil, eofIsUnexpected(err)
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func (d decoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, eofIsUnexpected(err)
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func eofIsUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
