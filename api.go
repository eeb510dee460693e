package fastser

import (
	"context"

	js "github.com/reoring/fastser/jsonschema"
)

// Validator coerces and checks a raw input value, returning the value to store.
type Validator interface {
	Validate(ctx context.Context, v any) (any, error)
	// Name describes the expected type in error messages ("int", "list[int]").
	Name() string
}

// Serializer converts a stored value into its output form.
type Serializer interface {
	Serialize(ctx context.Context, v any, opt SerializeOpt) (any, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, v any) (any, error)

func (f ValidatorFunc) Validate(ctx context.Context, v any) (any, error) { return f(ctx, v) }

func (f ValidatorFunc) Name() string { return "custom" }

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(ctx context.Context, v any, opt SerializeOpt) (any, error)

func (f SerializerFunc) Serialize(ctx context.Context, v any, opt SerializeOpt) (any, error) {
	return f(ctx, v, opt)
}

// Model is a compiled struct type: it constructs validated values from loose
// input and dumps them back.
type Model[T any] interface {
	Name() string
	// Construct builds a validated T from a map, a T or a *T. On failure it
	// returns the zero T and a *ValidationError.
	Construct(ctx context.Context, v any) (T, error)
	// ConstructWithMeta also reports which fields the input supplied.
	ConstructWithMeta(ctx context.Context, v any) (Decoded[T], error)
	Dump(ctx context.Context, v T, opt SerializeOpt) (map[string]any, error)
	DumpDecoded(ctx context.Context, d Decoded[T], opt SerializeOpt) (map[string]any, error)
	JSONSchema() (*js.Schema, error)
}

// PostIniter is implemented by *T to run after all fields are assigned.
// A returned error fails construction.
type PostIniter interface {
	PostInit(ctx context.Context) error
}

// SafeConstruct constructs v into T, returning (zero, false) on validation error.
func SafeConstruct[T any](ctx context.Context, m Model[T], v any) (T, bool) {
	val, err := m.Construct(ctx, v)
	if err != nil {
		var zero T
		return zero, false
	}
	return val, true
}

// Is reports whether v constructs into T without error.
func Is[T any](ctx context.Context, m Model[T], v any) bool {
	_, err := m.Construct(ctx, v)
	return err == nil
}

// ---- context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyUnknown
)

// WithFailFast returns a child context that stops construction at the first
// failing field.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current construction should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	b, _ := ctx.Value(_ctxKeyFailFast).(bool)
	return b
}

// WithUnknownPolicy overrides the unknown-key policy of every model
// constructed with ctx.
func WithUnknownPolicy(ctx context.Context, p UnknownPolicy) context.Context {
	return context.WithValue(ctx, _ctxKeyUnknown, p)
}

// UnknownPolicyFrom returns the policy set by WithUnknownPolicy.
func UnknownPolicyFrom(ctx context.Context) (UnknownPolicy, bool) {
	p, ok := ctx.Value(_ctxKeyUnknown).(UnknownPolicy)
	return p, ok
}

// serviceKey is a unique key per type parameter T for context storage.
type serviceKey[T any] struct{}

// WithService stores a typed service for PostInit hooks and custom validators.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, svc)
}

// Service retrieves a typed service stored by WithService.
func Service[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(serviceKey[T]{}).(T)
	return v, ok
}
