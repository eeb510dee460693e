package dsl

import (
	"context"
	"errors"
	"reflect"

	fastser "github.com/reoring/fastser"
	js "github.com/reoring/fastser/jsonschema"
)

// Model binds a compiled struct model to T. It implements fastser.Model[T]
// and is safe for concurrent use.
type Model[T any] struct {
	m *structModel
}

var _ fastser.Model[struct{}] = (*Model[struct{}])(nil)

// ModelOf compiles struct type T. Models without options share the compiled
// form used for nested fields of type T.
func ModelOf[T any](opts ...ModelOption) (*Model[T], error) {
	cfg := &modelConfig{}
	for _, o := range opts {
		o(cfg)
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, &fastser.DefinitionError{Model: t.String(), Err: errors.New("model type must be a struct")}
	}
	compileMu.Lock()
	defer compileMu.Unlock()
	var (
		m   *structModel
		err error
	)
	if cfg.custom() {
		m, err = compile(t, cfg)
	} else {
		m, err = compileCached(t)
	}
	if err != nil {
		return nil, err
	}
	return &Model[T]{m: m}, nil
}

// MustModel is like ModelOf but panics on error.
func MustModel[T any](opts ...ModelOption) *Model[T] {
	m, err := ModelOf[T](opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the model name used in errors and JSON Schema.
func (s *Model[T]) Name() string { return s.m.name }

// Fields returns the compiled fields in declaration order.
func (s *Model[T]) Fields() []Field {
	out := make([]Field, len(s.m.fields))
	for i, f := range s.m.fields {
		out[i] = *f
	}
	return out
}

func (s *Model[T]) String() string { return s.m.describe() }

// Construct validates v (a map with string keys, a T, a *T or another struct)
// into a T.
func (s *Model[T]) Construct(ctx context.Context, v any) (T, error) {
	var zero T
	rv, err := s.m.construct(ctx, v, nil, "")
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// ConstructWithMeta is Construct plus the presence of every field, nested
// ones included.
func (s *Model[T]) ConstructWithMeta(ctx context.Context, v any) (fastser.Decoded[T], error) {
	pm := fastser.PresenceMap{"/": fastser.PresenceSeen}
	rv, err := s.m.construct(ctx, v, pm, "")
	if err != nil {
		return fastser.Decoded[T]{}, err
	}
	return fastser.Decoded[T]{Value: rv.Interface().(T), Presence: pm}, nil
}

// Dump converts v into a map. ExcludeUnset needs presence and is ignored
// here; use DumpDecoded.
func (s *Model[T]) Dump(ctx context.Context, v T, opt fastser.SerializeOpt) (map[string]any, error) {
	return s.dumpWith(ctx, v, opt, nil)
}

// DumpDecoded is Dump with the presence collected by ConstructWithMeta.
func (s *Model[T]) DumpDecoded(ctx context.Context, d fastser.Decoded[T], opt fastser.SerializeOpt) (map[string]any, error) {
	return s.dumpWith(ctx, d.Value, opt, d.Presence)
}

func (s *Model[T]) dumpWith(ctx context.Context, v T, opt fastser.SerializeOpt, pm fastser.PresenceMap) (map[string]any, error) {
	sc := dumpScope{
		pm:      pm,
		include: parseSelection(opt.Include),
		exclude: parseSelection(opt.Exclude),
	}
	return s.m.dump(ctx, reflect.ValueOf(&v).Elem(), opt, sc)
}

// JSONSchema describes the model: properties in declaration order, required
// keys, descriptions, defaults and deprecation.
func (s *Model[T]) JSONSchema() (*js.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	return s.m.schema(), nil
}
