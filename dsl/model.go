package dsl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/coerce"
	js "github.com/reoring/fastser/jsonschema"
)

// Field describes one compiled struct field.
type Field struct {
	Name     string // Go field name
	Index    []int
	Type     reflect.Type
	Tag      fastser.FieldTag
	Required bool

	Validator  fastser.Validator
	Serializer fastser.Serializer

	def     reflect.Value // valid when a default is set
	factory func() any
}

// HasDefault reports whether a missing input is filled by a default or a
// factory.
func (f *Field) HasDefault() bool { return f.def.IsValid() || f.factory != nil }

func (f *Field) defaultValue() (reflect.Value, error) {
	if f.factory != nil {
		return convertTo(f.Type, f.factory())
	}
	return f.def, nil
}

// structModel is the compiled, untyped form of a struct type.
type structModel struct {
	t        reflect.Type
	name     string
	cfg      *modelConfig
	fields   []*Field
	byInput  map[string]*Field
	extra    *Field
	postInit bool
}

var (
	postIniterType = reflect.TypeOf((*fastser.PostIniter)(nil)).Elem()
	extraMapType   = reflect.TypeOf(map[string]any(nil))

	// models caches option-less models per struct type.
	models    sync.Map
	compileMu sync.Mutex
	// compiling holds the types whose compilation is in progress; a field
	// referring back to one of them resolves through the cache at run time.
	compiling = map[reflect.Type]bool{}
)

// modelForType returns the shared model for t, compiling it on first use.
func modelForType(t reflect.Type) (*structModel, error) {
	if m, ok := models.Load(t); ok {
		return m.(*structModel), nil
	}
	compileMu.Lock()
	defer compileMu.Unlock()
	m, err := compileCached(t)
	if err == nil && m == nil {
		err = fmt.Errorf("model %s is still compiling", t)
	}
	return m, err
}

// compileCached runs with compileMu held. It returns (nil, nil) for a type
// that is being compiled further up the stack.
func compileCached(t reflect.Type) (*structModel, error) {
	if m, ok := models.Load(t); ok {
		return m.(*structModel), nil
	}
	if compiling[t] {
		return nil, nil
	}
	compiling[t] = true
	defer delete(compiling, t)
	m, err := compile(t, &modelConfig{})
	if err != nil {
		return nil, err
	}
	models.Store(t, m)
	return m, nil
}

// compile runs with compileMu held.
func compile(t reflect.Type, cfg *modelConfig) (*structModel, error) {
	name := t.Name()
	if cfg.title != "" {
		name = cfg.title
	}
	if t.Kind() != reflect.Struct {
		return nil, &fastser.DefinitionError{Model: t.String(), Err: errors.New("model type must be a struct")}
	}
	m := &structModel{
		t:        t,
		name:     name,
		cfg:      cfg,
		byInput:  map[string]*Field{},
		postInit: reflect.PointerTo(t).Implements(postIniterType),
	}
	var errs []error
	for _, sf := range collectFields(t, nil) {
		f, err := m.compileField(sf)
		if err != nil {
			errs = append(errs, &fastser.DefinitionError{Model: name, Field: sf.Name, Err: err})
			continue
		}
		if f == nil {
			continue
		}
		if f.Tag.Extra {
			if m.extra != nil {
				errs = append(errs, &fastser.DefinitionError{Model: name, Field: sf.Name, Err: errors.New("more than one extra field")})
			}
			m.extra = f
			continue
		}
		for _, k := range []string{f.Tag.Key, f.Tag.Alias} {
			if k == "" {
				continue
			}
			if prev, dup := m.byInput[k]; dup && prev != f {
				errs = append(errs, &fastser.DefinitionError{Model: name, Field: sf.Name,
					Err: fmt.Errorf("key %q already used by %s", k, prev.Name)})
				continue
			}
			m.byInput[k] = f
		}
		m.fields = append(m.fields, f)
	}
	for _, k := range cfg.optionFields() {
		if m.lookupField(k) == nil {
			errs = append(errs, &fastser.DefinitionError{Model: name, Err: fmt.Errorf("option for unknown field %q", k)})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// collectFields flattens embedded structs base first; a field of the outer
// struct replaces a promoted field with the same key in place.
func collectFields(t reflect.Type, index []int) []reflect.StructField {
	var out []reflect.StructField
	promoted := map[string]int{}
	var direct []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		sf.Index = append(append([]int(nil), index...), i)
		_, named := sf.Tag.Lookup("fast")
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !named && sf.Tag.Get("json") == "" {
			for _, f := range collectFields(sf.Type, sf.Index) {
				promoted[fieldKey(f)] = len(out)
				out = append(out, f)
			}
			continue
		}
		if sf.IsExported() {
			direct = append(direct, sf)
		}
	}
	for _, sf := range direct {
		if i, ok := promoted[fieldKey(sf)]; ok {
			out[i] = sf
			delete(promoted, fieldKey(sf))
			continue
		}
		out = append(out, sf)
	}
	return out
}

func fieldKey(sf reflect.StructField) string {
	if ft, err := fastser.ParseFieldTag(sf); err == nil {
		return ft.Key
	}
	return sf.Name
}

func (m *structModel) compileField(sf reflect.StructField) (*Field, error) {
	tag, err := fastser.ParseFieldTag(sf)
	if err != nil {
		return nil, err
	}
	if tag.Skip {
		return nil, nil
	}
	f := &Field{Name: sf.Name, Index: sf.Index, Type: sf.Type, Tag: tag}
	if tag.Extra {
		if sf.Type != extraMapType {
			return nil, errors.New("extra field must be map[string]any")
		}
		return f, nil
	}
	if v, ok := option(m.cfg.validators, f); ok {
		f.Validator = v
	} else if f.Validator, err = forType(sf.Type, tag, m.cfg); err != nil {
		return nil, err
	}
	if s, ok := option(m.cfg.serializers, f); ok {
		f.Serializer = s
	} else {
		f.Serializer = ValueSerializer{
			DatetimeLayout: m.cfg.datetimeLayout,
			DateLayout:     m.cfg.dateLayout,
			Date:           tag.Format == "date",
			Clock:          tag.Format == "time",
		}
	}

	def, hasDef := option(m.cfg.defaults, f)
	f.factory, _ = option(m.cfg.factories, f)
	if hasDef && tag.HasDefault {
		return nil, errors.New("default set both by tag and option")
	}
	if (hasDef || tag.HasDefault) && f.factory != nil {
		return nil, errors.New("cannot set both default and default factory")
	}
	if (hasDef || tag.HasDefault) && isMutable(sf.Type) {
		return nil, errors.New("mutable default is not allowed, use WithDefaultFactory")
	}
	switch {
	case hasDef:
		if f.def, err = convertTo(sf.Type, def); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
	case tag.HasDefault:
		if f.def, err = parseDefault(f); err != nil {
			return nil, err
		}
	}

	switch {
	case tag.Required != nil:
		f.Required = *tag.Required
	case sf.Type.Kind() == reflect.Pointer || sf.Type.Kind() == reflect.Interface:
		f.Required = false
	case m.cfg.required != nil:
		f.Required = *m.cfg.required
	default:
		f.Required = fastser.DefaultRequired()
	}
	if f.HasDefault() {
		f.Required = false
	}
	return f, nil
}

func isMutable(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice && !isByteSlice(t)) || t.Kind() == reflect.Map
}

// option looks a per-field option up by Go name, then key.
func option[V any](opts map[string]V, f *Field) (V, bool) {
	if v, ok := opts[f.Name]; ok {
		return v, true
	}
	v, ok := opts[f.Tag.Key]
	return v, ok
}

func (m *structModel) lookupField(name string) *Field {
	for _, f := range m.fields {
		if f.Name == name || f.Tag.Key == name {
			return f
		}
	}
	return nil
}

// ---- construct ----

// constructScope carries presence collection into nested models.
type constructScope struct {
	pm     fastser.PresenceMap
	prefix string
}

type constructKey struct{}

func withConstructScope(ctx context.Context, pm fastser.PresenceMap, prefix string) context.Context {
	if pm == nil {
		return ctx
	}
	return context.WithValue(ctx, constructKey{}, constructScope{pm: pm, prefix: prefix})
}

// constructAt extends the presence prefix of ctx by one path segment.
func constructAt(ctx context.Context, at fastser.PathRef) context.Context {
	s, ok := ctx.Value(constructKey{}).(constructScope)
	if !ok {
		return ctx
	}
	return withConstructScope(ctx, s.pm, s.prefix+at.Prefix())
}

// inputMap flattens a model input into key -> value.
func (m *structModel) inputMap(x any) (map[string]any, bool) {
	rv := reflect.ValueOf(x)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Map:
		if !coerce.IsMapping(rv.Interface()) {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		ok := true
		_ = coerce.EachEntry(rv.Interface(), func(k, v any) error {
			ks, isStr := k.(string)
			if !isStr {
				ok = false
				return errStop
			}
			out[ks] = v
			return nil
		})
		return out, ok
	case reflect.Struct:
		src := m
		if rv.Type() != m.t {
			var err error
			if src, err = modelForType(rv.Type()); err != nil {
				return nil, false
			}
		}
		out := make(map[string]any, len(src.fields))
		for _, f := range src.fields {
			out[f.Tag.Key] = rv.FieldByIndex(f.Index).Interface()
		}
		if src.extra != nil {
			for k, v := range rv.FieldByIndex(src.extra.Index).Interface().(map[string]any) {
				if _, taken := out[k]; !taken {
					out[k] = v
				}
			}
		}
		return out, true
	}
	return nil, false
}

func (m *structModel) unknownPolicy(ctx context.Context) fastser.UnknownPolicy {
	if p, ok := fastser.UnknownPolicyFrom(ctx); ok {
		return p
	}
	if m.cfg.unknown != nil {
		return *m.cfg.unknown
	}
	return fastser.UnknownIgnore
}

// lookup finds a field's input, alias first.
func (f *Field) lookup(src map[string]any) (any, bool) {
	if f.Tag.Alias != "" {
		if v, ok := src[f.Tag.Alias]; ok {
			return v, true
		}
	}
	v, ok := src[f.Tag.Key]
	return v, ok
}

// construct validates x into a new value of m.t. Issue paths are relative to
// the model; presence is recorded in pm under prefix.
func (m *structModel) construct(ctx context.Context, x any, pm fastser.PresenceMap, prefix string) (reflect.Value, error) {
	src, ok := m.inputMap(x)
	if !ok {
		iss := fastser.Issues{fastser.NewIssue("/", fastser.CodeModelType, map[string]any{"expected": m.name})}
		iss[0].Input = x
		return reflect.Value{}, &fastser.ValidationError{Model: m.name, Issues: iss}
	}
	failFast := fastser.IsFailFast(ctx)
	var (
		iss   fastser.Issues
		ferrs []*fastser.FieldError
	)
	record := func(f *Field, at fastser.PathRef, err error) {
		ferrs = append(ferrs, &fastser.FieldError{Field: f.Name, Key: f.Tag.Key, Err: err})
		if errors.Is(err, fastser.ErrMissing) {
			it := fastser.NewIssue(at.Pointer(), fastser.CodeMissing, nil)
			it.Cause = err
			iss = append(iss, it)
			return
		}
		iss = append(iss, fastser.ToIssues(err).Rebase(at.Prefix())...)
	}

	var extras map[string]any
	policy := m.unknownPolicy(ctx)
	if policy != fastser.UnknownIgnore {
		var unknown []string
		for k := range src {
			if _, known := m.byInput[k]; !known {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			switch {
			case policy == fastser.UnknownStrict:
				it := fastser.NewIssue(fastser.Root().Field(k).Pointer(), fastser.CodeUnknownKey, map[string]any{"key": k})
				it.Input = src[k]
				iss = append(iss, it)
			case m.extra != nil:
				if extras == nil {
					extras = map[string]any{}
				}
				extras[k] = src[k]
			}
		}
		if failFast && len(iss) > 0 {
			return reflect.Value{}, &fastser.ValidationError{Model: m.name, Issues: iss}
		}
	}

	out := reflect.New(m.t).Elem()
	for _, f := range m.fields {
		at := fastser.Root().Field(f.Tag.Key)
		abs := prefix + at.Prefix()
		raw, present := f.lookup(src)
		if present {
			pm.Mark(abs, fastser.PresenceSeen)
			if raw == nil {
				pm.Mark(abs, fastser.PresenceWasNull)
			}
			if f.Tag.Deprecated {
				m.cfg.log().WarnContext(ctx, "fastser: deprecated field supplied", "model", m.name, "field", f.Tag.Key)
			}
		}
		var val reflect.Value
		switch {
		case present && coerce.Classify(raw) != coerce.ShapeNil:
			v, err := f.Validator.Validate(withConstructScope(ctx, pm, abs), raw)
			if err != nil {
				record(f, at, err)
				break
			}
			if val, err = convertTo(f.Type, v); err != nil {
				it := fastser.NewIssue(at.Pointer(), fastser.CodeInvalidType, map[string]any{"expected": f.Type.String()})
				it.Cause, it.Input = err, raw
				ferrs = append(ferrs, &fastser.FieldError{Field: f.Name, Key: f.Tag.Key, Err: err})
				iss = append(iss, it)
			}
		case !present && f.HasDefault():
			v, err := f.defaultValue()
			if err != nil {
				record(f, at, err)
				break
			}
			val = v
			pm.Mark(abs, fastser.PresenceDefaultApplied)
		case f.Required:
			record(f, at, fastser.ErrMissing)
		}
		if failFast && len(iss) > 0 {
			break
		}
		if val.IsValid() {
			out.FieldByIndex(f.Index).Set(val)
		}
	}
	if len(iss) > 0 {
		return reflect.Value{}, &fastser.ValidationError{Model: m.name, Issues: iss, Fields: ferrs}
	}
	if m.extra != nil && extras != nil {
		out.FieldByIndex(m.extra.Index).Set(reflect.ValueOf(extras))
	}
	if m.postInit {
		if err := out.Addr().Interface().(fastser.PostIniter).PostInit(ctx); err != nil {
			iss := fastser.ToIssues(err)
			if _, structured := fastser.AsIssues(err); !structured {
				it := fastser.NewIssue("/", fastser.CodePostInit, nil)
				it.Message += ": " + err.Error()
				it.Cause = err
				iss = fastser.Issues{it}
			}
			return reflect.Value{}, &fastser.ValidationError{Model: m.name, Issues: iss}
		}
	}
	return out, nil
}

// modelValidator validates nested struct fields through the shared model.
type modelValidator struct{ t reflect.Type }

func (v modelValidator) Name() string { return v.t.Name() }

func (v modelValidator) Validate(ctx context.Context, x any) (any, error) {
	m, err := modelForType(v.t)
	if err != nil {
		return nil, err
	}
	s, _ := ctx.Value(constructKey{}).(constructScope)
	out, err := m.construct(ctx, x, s.pm, s.prefix)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (v modelValidator) schema() *js.Schema {
	m, err := modelForType(v.t)
	if err != nil {
		return &js.Schema{Type: "object", Title: v.t.Name()}
	}
	return m.schema()
}

// ---- dump ----

func (m *structModel) dump(ctx context.Context, rv reflect.Value, opt fastser.SerializeOpt, sc dumpScope) (map[string]any, error) {
	out := make(map[string]any, len(m.fields))
	var msgs []string
	for _, f := range m.fields {
		if f.Tag.Exclude {
			continue
		}
		child := dumpScope{pm: sc.pm, prefix: sc.prefix + fastser.Root().Field(f.Tag.Key).Prefix()}
		if sc.include != nil {
			sub, ok := sc.include.lookup(f.Name, f.Tag.Key)
			if !ok {
				continue
			}
			child.include = sub
		}
		if sc.exclude != nil {
			if sub, ok := sc.exclude.lookup(f.Name, f.Tag.Key); ok {
				if sub == nil {
					continue
				}
				child.exclude = sub
			}
		}
		if opt.ExcludeUnset && sc.pm != nil && !sc.pm.Set(child.prefix) {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		if opt.ExcludeNone && isNone(fv) {
			continue
		}
		if opt.ExcludeDefaults && f.isDefault(fv) {
			continue
		}
		val, err := f.Serializer.Serialize(withScope(ctx, child), fv.Interface(), opt)
		if err != nil {
			switch opt.Errors {
			case fastser.ErrorsError:
				msgs = append(msgs, f.Tag.Key+": "+err.Error())
				continue
			case fastser.ErrorsWarn:
				m.logger(opt).WarnContext(ctx, "fastser: serialization fallback", "model", m.name, "field", f.Tag.Key, "mode", opt.Mode.String(), "err", err)
			}
			val = fv.Interface()
		}
		out[f.Tag.OutputKey(opt.ByAlias)] = val
	}
	if m.extra != nil && sc.include == nil {
		for k, v := range rv.FieldByIndex(m.extra.Index).Interface().(map[string]any) {
			if _, taken := out[k]; taken {
				continue
			}
			if _, skip := sc.exclude.lookup(k); skip {
				continue
			}
			val, err := ValueSerializer{}.Serialize(ctx, v, opt)
			if err != nil {
				val = v
			}
			out[k] = val
		}
	}
	if len(msgs) > 0 {
		return nil, &fastser.SerializationError{Model: m.name, Messages: msgs}
	}
	return out, nil
}

func (m *structModel) logger(opt fastser.SerializeOpt) *slog.Logger {
	if opt.Logger != nil {
		return opt.Logger
	}
	return m.cfg.log()
}

func isNone(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func (f *Field) isDefault(v reflect.Value) bool {
	switch {
	case f.factory != nil:
		d, err := f.defaultValue()
		return err == nil && reflect.DeepEqual(v.Interface(), d.Interface())
	case f.def.IsValid():
		return reflect.DeepEqual(v.Interface(), f.def.Interface())
	}
	return v.IsZero()
}

// ---- JSON Schema ----

// schemaVisiting guards recursive models; callers hold schemaMu.
var schemaVisiting = map[*structModel]bool{}

func (m *structModel) schema() *js.Schema {
	if schemaVisiting[m] {
		return &js.Schema{Type: "object", Title: m.name}
	}
	schemaVisiting[m] = true
	defer delete(schemaVisiting, m)

	s := &js.Schema{
		Type:        "object",
		Title:       m.name,
		Description: m.cfg.description,
		Properties:  make(map[string]*js.Schema, len(m.fields)),
	}
	for _, f := range m.fields {
		if f.Tag.Exclude {
			continue
		}
		p := schemaOf(f.Validator).Clone()
		if f.Tag.Description != "" {
			p.Description = f.Tag.Description
		}
		p.Deprecated = f.Tag.Deprecated
		if f.def.IsValid() {
			if d, err := f.Serializer.Serialize(context.Background(), f.def.Interface(), fastser.SerializeOpt{Mode: fastser.ModeJSON}); err == nil {
				p.Default = d
			}
		}
		s.Properties[f.Tag.Key] = p
		s.PropertyOrder = append(s.PropertyOrder, f.Tag.Key)
		if f.Required {
			s.Required = append(s.Required, f.Tag.Key)
		}
	}
	switch {
	case m.cfg.unknown != nil && *m.cfg.unknown == fastser.UnknownStrict:
		s.AdditionalProperties = false
	case m.extra != nil:
		s.AdditionalProperties = true
	}
	return s
}

// describe renders the field list for debugging ("name int (required)").
func (m *structModel) describe() string {
	parts := make([]string, len(m.fields))
	for i, f := range m.fields {
		parts[i] = f.Tag.Key + " " + f.Validator.Name()
		if f.Required {
			parts[i] += " (required)"
		}
	}
	return m.name + "{" + strings.Join(parts, ", ") + "}"
}
