package fastser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/fastser/coerce"
	"github.com/reoring/fastser/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention).
// Coercion codes ("int_parsing", "list_type", ...) come from package coerce.
const (
	CodeMissing        = "missing"
	CodeInvalidType    = "invalid_type"
	CodeUnknownKey     = "unknown_key"
	CodeDuplicateKey   = "duplicate_key"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodeIterTooShort   = "iter_too_short"
	CodeIterTooLong    = "iter_too_long"
	CodeTupleLength    = "tuple_length"
	CodePattern        = "pattern"
	CodeEnum           = "enum"
	CodeLiteral        = "literal_error"
	CodeUnion          = "union_error"
	CodeSetType        = "set_type"
	CodeTupleType      = "tuple_type"
	CodeModelType      = "model_type"
	CodeTextUnmarshal  = "text_unmarshal"
	CodeConstraint     = "constraint"
	CodeCheck          = "check"
	CodePostInit       = "post_init"
	CodeParseError     = "parse_error"
	CodeOverflow       = "int_overflow"
	CodeTruncated      = "truncated"
	CodeSerialization  = "serialization"
)

// ErrMissing marks a required field that had no input and no default.
var ErrMissing = errors.New("fastser: field required")

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes above or a coerce code.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Input is the offending input value when known.
	Input any
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		// e.g. int_parsing at /age
		fmt.Fprintf(b, "%s at %s", iss[i].Code, pathOrRoot(iss[i].Path))
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the underlying causes (post-init errors, custom validator
// errors) to errors.Is and errors.As.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error. It understands Issues,
// *ValidationError and bare *coerce.Error values.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues, true
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var ce *coerce.Error
	if errors.As(err, &ce) {
		return Issues{IssueFromCoerce(ce)}, true
	}
	return nil, false
}

// IssueFromCoerce converts a coercion failure into an Issue, turning its
// location into a JSON Pointer.
func IssueFromCoerce(ce *coerce.Error) Issue {
	p := Root()
	for _, l := range ce.Loc {
		switch x := l.(type) {
		case int:
			p = p.Index(x)
		default:
			p = p.Field(fmt.Sprint(x))
		}
	}
	params := make(map[string]any, len(ce.Params)+1)
	params["expected"] = ce.Expected
	for k, v := range ce.Params {
		params[k] = v
	}
	return Issue{
		Path:    p.Pointer(),
		Code:    ce.Code,
		Message: ce.Message(),
		Cause:   ce,
		Input:   ce.Value,
		Params:  params,
	}
}

// ToIssues turns any validator error into Issues rooted at "/".
func ToIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{{Path: "/", Code: "value_error", Message: err.Error(), Cause: err}}
}

// Rebase prefixes every issue path with prefix (a JSON Pointer).
func (iss Issues) Rebase(prefix string) Issues {
	if prefix == "" || prefix == "/" {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		if it.Path == "" || it.Path == "/" {
			it.Path = prefix
		} else {
			it.Path = prefix + it.Path
		}
		out[i] = it
	}
	return out
}

// FieldError attributes a failure to one field of a model.
type FieldError struct {
	Field string // Go field name
	Key   string // external key
	Err   error  // *coerce.Error, ErrMissing, Issues, ...
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Key, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationError reports a failed construction. No instance is produced
// alongside it.
type ValidationError struct {
	Model  string
	Issues Issues
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	n := len(e.Issues)
	noun := "errors"
	if n == 1 {
		noun = "error"
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "%d validation %s for %s", n, noun, e.Model)
	for _, it := range e.Issues {
		fmt.Fprintf(b, "\n  %s\n    %s [type=%s]", pathOrRoot(it.Path), it.Message, it.Code)
	}
	return b.String()
}

// Unwrap exposes the per-field errors to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, 0, len(e.Fields)+1)
	for _, f := range e.Fields {
		out = append(out, f)
	}
	return append(out, e.Issues)
}

// Field returns the first error attributed to the named field (Go name or
// key), or nil.
func (e *ValidationError) Field(name string) *FieldError {
	for _, f := range e.Fields {
		if f.Field == name || f.Key == name {
			return f
		}
	}
	return nil
}

// SerializationError collects the failures of a serialization call run with
// Errors: Error.
type SerializationError struct {
	Model    string
	Messages []string
}

func (e *SerializationError) Error() string {
	return "fastser: serialization failed for " + e.Model + ":\n  " + strings.Join(e.Messages, "\n  ")
}

// DefinitionError reports an invalid model declaration (bad tag, default and
// factory both set, mutable default, ...).
type DefinitionError struct {
	Model string
	Field string
	Err   error
}

func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("fastser: model %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("fastser: model %s field %s: %v", e.Model, e.Field, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// NewIssue builds an Issue whose message is translated from code.
func NewIssue(path, code string, params map[string]any) Issue {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = fmt.Sprint(v)
	}
	return Issue{Path: path, Code: code, Message: i18n.T(code, data), Params: params}
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
