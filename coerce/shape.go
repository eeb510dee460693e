// Package coerce converts loosely typed runtime values into the Go values a
// field declares. The functions are total: every input yields either a value or
// a *Error, and classification never panics.
package coerce

import (
	"cmp"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shape is the coarse classification of a runtime value.
type Shape uint8

const (
	ShapeOther      Shape = iota // structs, channels, non-iterator funcs
	ShapeNil                     // nil, nil pointer, nil interface
	ShapeScalar                  // numbers, bools, decimals, times, UUIDs
	ShapeString                  // strings and byte slices
	ShapeMapping                 // maps (except set-like maps)
	ShapeCollection              // slices, arrays, map[K]struct{}
	ShapeIterable                // iter.Seq-shaped funcs
)

var shapeNames = [...]string{"other", "nil", "scalar", "string", "mapping", "collection", "iterable"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", s)
}

var (
	emptyStructType = reflect.TypeOf(struct{}{})
	scalarStructs   = map[reflect.Type]struct{}{
		reflect.TypeOf(decimal.Decimal{}): {},
		reflect.TypeOf(time.Time{}):       {},
		reflect.TypeOf(uuid.UUID{}):       {},
		reflect.TypeOf(json.Number("")):   {},
	}
)

// Classify reports the shape of v. Pointers and interfaces are followed. Byte
// sequences are ShapeString and maps are ShapeMapping, so neither is ever
// treated as an element container. A panic while inspecting v yields
// ShapeOther.
func Classify(v any) (shape Shape) {
	defer func() {
		if recover() != nil {
			shape = ShapeOther
		}
	}()
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return ShapeNil
	}
	if _, ok := scalarStructs[rv.Type()]; ok {
		return ShapeScalar
	}
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return ShapeScalar
	case reflect.String:
		return ShapeString
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return ShapeString
		}
		return ShapeCollection
	case reflect.Array:
		return ShapeCollection
	case reflect.Map:
		if rv.Type().Elem() == emptyStructType {
			return ShapeCollection
		}
		return ShapeMapping
	case reflect.Func:
		if !rv.IsNil() && rv.Type().CanSeq() {
			return ShapeIterable
		}
	}
	return ShapeOther
}

// IsIterable reports whether v is an element container: a collection or an
// iterator, never a string, byte slice or mapping.
func IsIterable(v any) bool {
	switch Classify(v) {
	case ShapeCollection, ShapeIterable:
		return true
	}
	return false
}

// IsMapping reports whether v is a (non set-like) map.
func IsMapping(v any) bool { return Classify(v) == ShapeMapping }

// Len returns the element count of a collection or mapping. Iterators have no
// known length.
func Len(v any) (int, bool) {
	switch Classify(v) {
	case ShapeCollection, ShapeMapping:
		rv, _ := indirect(reflect.ValueOf(v))
		return rv.Len(), true
	}
	return 0, false
}

// Each calls fn for every element of an iterable value in its natural order:
// index order for slices and arrays, sorted key order for set-like maps and
// yield order for iterators. It stops at the first error fn returns.
func Each(v any, fn func(i int, elem any) error) error {
	shape := Classify(v)
	if shape != ShapeCollection && shape != ShapeIterable {
		return &Error{Code: CodeIterableType, Expected: "iterable", Value: v}
	}
	rv, _ := indirect(reflect.ValueOf(v))
	switch {
	case shape == ShapeIterable:
		i := 0
		for ev := range rv.Seq() {
			if err := fn(i, valueInterface(ev)); err != nil {
				return err
			}
			i++
		}
		return nil
	case rv.Kind() == reflect.Map:
		for i, k := range sortedKeys(rv) {
			if err := fn(i, valueInterface(k)); err != nil {
				return err
			}
		}
		return nil
	default:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, valueInterface(rv.Index(i))); err != nil {
				return err
			}
		}
		return nil
	}
}

// EachEntry calls fn for every entry of a mapping in sorted key order.
func EachEntry(v any, fn func(key, val any) error) error {
	if Classify(v) != ShapeMapping {
		return &Error{Code: CodeDictType, Expected: "dict", Value: v}
	}
	rv, _ := indirect(reflect.ValueOf(v))
	for _, k := range sortedKeys(rv) {
		if err := fn(valueInterface(k), valueInterface(rv.MapIndex(k))); err != nil {
			return err
		}
	}
	return nil
}

func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func valueInterface(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	if rv.CanInterface() {
		return rv.Interface()
	}
	return nil
}

func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	slices.SortFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b reflect.Value) int {
	a, _ = indirect(a)
	b, _ = indirect(b)
	if a.IsValid() && b.IsValid() && a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return cmp.Compare(a.String(), b.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(a.Int(), b.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return cmp.Compare(a.Uint(), b.Uint())
		case reflect.Float32, reflect.Float64:
			return cmp.Compare(a.Float(), b.Float())
		}
	}
	return cmp.Compare(fmt.Sprint(valueInterface(a)), fmt.Sprint(valueInterface(b)))
}
