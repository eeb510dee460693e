package dsl

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/coerce"
	js "github.com/reoring/fastser/jsonschema"
)

var errStop = errors.New("stop")

// elemIssues locates a child failure under seg.
func elemIssues(err error, at fastser.PathRef) fastser.Issues {
	return fastser.ToIssues(err).Rebase(at.Prefix())
}

func lengthIssue(code, expected string, v any, limitKey string, limit, got int) error {
	return &coerce.Error{Code: code, Expected: expected, Value: v, Params: map[string]string{
		limitKey: strconv.Itoa(limit),
		"got":    strconv.Itoa(got),
	}}
}

// ---- list / set ----

// ListValidator validates element containers: every element passes elem,
// failures are collected with their index.
type ListValidator struct {
	elem               fastser.Validator
	minItems, maxItems *int
	set                bool
}

// List validates slices, arrays, set-like maps and iter.Seq values into []any.
func List(elem fastser.Validator) ListValidator { return ListValidator{elem: elem} }

// Set is List with duplicates dropped (first occurrence wins).
func Set(elem fastser.Validator) ListValidator { return ListValidator{elem: elem, set: true} }

func (v ListValidator) MinItems(n int) ListValidator { v.minItems = &n; return v }
func (v ListValidator) MaxItems(n int) ListValidator { v.maxItems = &n; return v }

func (v ListValidator) kind() string {
	if v.set {
		return "set"
	}
	return "list"
}

func (v ListValidator) Name() string { return v.kind() + "[" + v.elem.Name() + "]" }

func (v ListValidator) Validate(ctx context.Context, x any) (any, error) {
	if !coerce.IsIterable(x) {
		code := coerce.CodeListType
		if v.set {
			code = fastser.CodeSetType
		}
		return nil, &coerce.Error{Code: code, Expected: v.kind(), Value: x}
	}
	n, _ := coerce.Len(x)
	out := make([]any, 0, n)
	seen := map[any]struct{}{}
	var iss fastser.Issues
	err := coerce.Each(x, func(i int, e any) error {
		ev, err := v.elem.Validate(constructAt(ctx, fastser.Root().Index(i)), e)
		if err != nil {
			iss = append(iss, elemIssues(err, fastser.Root().Index(i))...)
			if fastser.IsFailFast(ctx) {
				return errStop
			}
			return nil
		}
		if v.set {
			k := setKey(ev)
			if _, dup := seen[k]; dup {
				return nil
			}
			seen[k] = struct{}{}
		}
		out = append(out, ev)
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if v.minItems != nil && len(out) < *v.minItems {
		return nil, lengthIssue(fastser.CodeIterTooShort, v.kind(), x, "min", *v.minItems, len(out))
	}
	if v.maxItems != nil && len(out) > *v.maxItems {
		return nil, lengthIssue(fastser.CodeIterTooLong, v.kind(), x, "max", *v.maxItems, len(out))
	}
	return out, nil
}

func (v ListValidator) schema() *js.Schema {
	return &js.Schema{Type: "array", Items: schemaOf(v.elem), MinItems: v.minItems, MaxItems: v.maxItems, UniqueItems: v.set}
}

// setKey returns a comparable identity for a validated element.
func setKey(v any) any {
	if v == nil || reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// ---- tuple ----

// TupleValidator validates fixed-arity containers position by position.
type TupleValidator struct {
	elems []fastser.Validator
}

// Tuple validates containers with exactly len(elems) items into []any.
func Tuple(elems ...fastser.Validator) TupleValidator { return TupleValidator{elems: elems} }

func (v TupleValidator) Name() string {
	names := make([]string, len(v.elems))
	for i, e := range v.elems {
		names[i] = e.Name()
	}
	return "tuple[" + strings.Join(names, ", ") + "]"
}

func (v TupleValidator) Validate(ctx context.Context, x any) (any, error) {
	if !coerce.IsIterable(x) {
		return nil, &coerce.Error{Code: fastser.CodeTupleType, Expected: "tuple", Value: x}
	}
	var items []any
	_ = coerce.Each(x, func(_ int, e any) error {
		items = append(items, e)
		return nil
	})
	if len(items) != len(v.elems) {
		return nil, &coerce.Error{Code: fastser.CodeTupleLength, Expected: strconv.Itoa(len(v.elems)), Value: x,
			Params: map[string]string{"got": strconv.Itoa(len(items))}}
	}
	out := make([]any, len(items))
	var iss fastser.Issues
	for i, e := range items {
		ev, err := v.elems[i].Validate(constructAt(ctx, fastser.Root().Index(i)), e)
		if err != nil {
			iss = append(iss, elemIssues(err, fastser.Root().Index(i))...)
			if fastser.IsFailFast(ctx) {
				break
			}
			continue
		}
		out[i] = ev
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (v TupleValidator) schema() *js.Schema {
	n := len(v.elems)
	s := &js.Schema{Type: "array", MinItems: &n, MaxItems: &n}
	for _, e := range v.elems {
		s.PrefixItems = append(s.PrefixItems, schemaOf(e))
	}
	return s
}

// ---- dict ----

// MapValidator validates mappings key by key.
type MapValidator struct {
	key, val           fastser.Validator
	minItems, maxItems *int
}

// Map validates maps into map[any]any; keys pass key, values pass val.
func Map(key, val fastser.Validator) MapValidator { return MapValidator{key: key, val: val} }

func (v MapValidator) MinItems(n int) MapValidator { v.minItems = &n; return v }
func (v MapValidator) MaxItems(n int) MapValidator { v.maxItems = &n; return v }

func (v MapValidator) Name() string { return "dict[" + v.key.Name() + ", " + v.val.Name() + "]" }

func (v MapValidator) Validate(ctx context.Context, x any) (any, error) {
	if !coerce.IsMapping(x) {
		return nil, &coerce.Error{Code: coerce.CodeDictType, Expected: "dict", Value: x}
	}
	n, _ := coerce.Len(x)
	out := make(map[any]any, n)
	var iss fastser.Issues
	err := coerce.EachEntry(x, func(k, e any) error {
		at := fastser.Root().Field(fmt.Sprint(k))
		kv, err := v.key.Validate(ctx, k)
		if err == nil {
			if kv != nil && !reflect.TypeOf(kv).Comparable() {
				err = &coerce.Error{Code: coerce.CodeDictType, Expected: "hashable key", Value: k}
			}
		}
		var ev any
		if err == nil {
			ev, err = v.val.Validate(constructAt(ctx, at), e)
		}
		if err != nil {
			iss = append(iss, elemIssues(err, at)...)
			if fastser.IsFailFast(ctx) {
				return errStop
			}
			return nil
		}
		out[kv] = ev
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if v.minItems != nil && len(out) < *v.minItems {
		return nil, lengthIssue(fastser.CodeIterTooShort, "dict", x, "min", *v.minItems, len(out))
	}
	if v.maxItems != nil && len(out) > *v.maxItems {
		return nil, lengthIssue(fastser.CodeIterTooLong, "dict", x, "max", *v.maxItems, len(out))
	}
	return out, nil
}

func (v MapValidator) schema() *js.Schema {
	return &js.Schema{Type: "object", AdditionalProperties: schemaOf(v.val)}
}

// ---- optional / union / literal ----

type optionalValidator struct{ inner fastser.Validator }

// Optional accepts nil as is and passes everything else to inner.
func Optional(inner fastser.Validator) fastser.Validator { return optionalValidator{inner: inner} }

func (v optionalValidator) Name() string { return "Optional[" + v.inner.Name() + "]" }

func (v optionalValidator) Validate(ctx context.Context, x any) (any, error) {
	if coerce.Classify(x) == coerce.ShapeNil {
		return nil, nil
	}
	return v.inner.Validate(ctx, x)
}

func (v optionalValidator) schema() *js.Schema {
	s := schemaOf(v.inner).Clone()
	s.Nullable = true
	return s
}

type unionValidator struct{ choices []fastser.Validator }

// Union tries choices in order; the first success wins and the last failure
// is reported.
func Union(choices ...fastser.Validator) fastser.Validator { return unionValidator{choices: choices} }

func (v unionValidator) Name() string {
	names := make([]string, len(v.choices))
	for i, c := range v.choices {
		names[i] = c.Name()
	}
	return "Union[" + strings.Join(names, ", ") + "]"
}

func (v unionValidator) Validate(ctx context.Context, x any) (any, error) {
	if len(v.choices) == 0 {
		return nil, &coerce.Error{Code: fastser.CodeUnion, Expected: v.Name(), Value: x}
	}
	var last error
	for _, c := range v.choices {
		out, err := c.Validate(ctx, x)
		if err == nil {
			return out, nil
		}
		last = err
	}
	return nil, last
}

func (v unionValidator) schema() *js.Schema {
	s := &js.Schema{}
	for _, c := range v.choices {
		s.AnyOf = append(s.AnyOf, schemaOf(c))
	}
	return s
}

type literalValidator struct {
	inner  fastser.Validator
	values []any
	// allowed holds values after inner; a value inner rejects stays raw.
	allowed []any
}

// Literal validates with inner (Any when nil) and then requires the result
// to equal one of values, each run through inner first.
func Literal(inner fastser.Validator, values ...any) fastser.Validator {
	if inner == nil {
		inner = Any()
	}
	allowed := make([]any, len(values))
	for i, x := range values {
		allowed[i] = x
		if out, err := inner.Validate(context.Background(), x); err == nil {
			allowed[i] = out
		}
	}
	return literalValidator{inner: inner, values: values, allowed: allowed}
}

func (v literalValidator) expected() string {
	parts := make([]string, len(v.values))
	for i, x := range v.values {
		parts[i] = fmt.Sprintf("'%v'", x)
	}
	return strings.Join(parts, ", ")
}

func (v literalValidator) Name() string { return "Literal[" + v.expected() + "]" }

func (v literalValidator) Validate(ctx context.Context, x any) (any, error) {
	out, err := v.inner.Validate(ctx, x)
	if err != nil {
		return nil, err
	}
	for _, a := range v.allowed {
		if sameValue(a, out) {
			return out, nil
		}
	}
	return nil, &coerce.Error{Code: fastser.CodeLiteral, Expected: v.expected(), Value: x}
}

func (v literalValidator) schema() *js.Schema {
	s := schemaOf(v.inner).Clone()
	s.Enum = append([]any(nil), v.allowed...)
	return s
}

// sameValue compares decimals and times by value, everything else deeply.
func sameValue(a, b any) bool {
	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}
