package fastser

import (
	"io"
	"sync"

	eng "github.com/reoring/fastser/internal/engine"
	"github.com/reoring/fastser/source/gojson"
)

// TokenKind enumerates JSON token kinds.
type TokenKind = eng.Kind

const (
	TokenBeginObject = eng.KindBeginObject
	TokenEndObject   = eng.KindEndObject
	TokenBeginArray  = eng.KindBeginArray
	TokenEndArray    = eng.KindEndArray
	TokenKey         = eng.KindKey
	TokenString      = eng.KindString
	TokenNumber      = eng.KindNumber
	TokenBool        = eng.KindBool
	TokenNull        = eng.KindNull
)

// Token describes a token in the input stream. Number holds the literal
// text; ParseOpt.Numbers decides its Go type.
type Token = eng.Token

// Source abstracts over token streams (JSON readers, generated decoders).
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source. The default is backed by
// goccy/go-json and may be swapped with SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = goJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil restores the default.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		d = goJSONDriver{}
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// CurrentJSONDriver returns the driver used by JSONReader and JSONBytes.
func CurrentJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	defer jsonDriverMu.RUnlock()
	return currentJSONDriver
}

type goJSONDriver struct{}

func (goJSONDriver) NewReader(r io.Reader) Source { return gojson.NewReader(r) }
func (goJSONDriver) NewBytes(b []byte) Source     { return gojson.NewBytes(b) }
func (goJSONDriver) Name() string                 { return "go-json" }

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return CurrentJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return CurrentJSONDriver().NewBytes(b) }

// EnforceSource wraps a Source with duplicate-key, depth and size enforcement.
// sink, when non-nil, receives non-fatal issues (duplicate keys in Warn mode).
func EnforceSource(s Source, opt ParseOpt, sink func(Issue)) Source {
	var forward func(eng.SimpleIssue)
	if sink != nil {
		forward = func(si eng.SimpleIssue) {
			sink(NewIssue(si.Path, si.Code, map[string]any{"detail": si.Message}))
		}
	}
	return eng.WrapWithEnforcement(s, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   forward,
		FailFast:    opt.FailFast,
	})
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

func numberConv(m NumberMode) eng.NumberConv {
	switch m {
	case NumberFloat64:
		return eng.NumbersAsFloat64
	case NumberJSONNumber:
		return eng.NumbersAsJSONNumber
	case NumberDecimal:
		return eng.NumbersAsDecimal
	default:
		return eng.NumbersAuto
	}
}
