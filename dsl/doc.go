// Package dsl compiles Go struct types into fastser models.
//
// Overview
//   - ModelOf[T]/MustModel[T]: compile struct T from its field tags. Models
//     without options are cached per type and shared with nested fields.
//   - Validators: Int/Float/String/Bool/Bytes/Decimal/Time/Date/Duration/UUID,
//     List/Set/Tuple/Map, Optional/Union/Literal, Expr (expr-lang) and Rule
//     (go-playground/validator). ForType derives one from a Go type.
//   - ValueSerializer: python-mode and JSON-mode output of stored values.
//   - Presence: ConstructWithMeta records which keys the input supplied,
//     DumpDecoded uses it for ExcludeUnset.
//
// Field tags
//
//	type User struct {
//	    ID      int64             `json:"id" fast:"required,min=1"`
//	    Name    string            `fast:"name=user_name,alias=userName,min_len=1,max_len=32"`
//	    Email   string            `validate:"email"`
//	    Age     int               `fast:"default=18" check:"value >= 0 && value < 150"`
//	    Role    string            `fast:"oneof=admin|member,default=member"`
//	    Tags    []string          `fast:"max_len=8"`
//	    Born    time.Time         `fast:"format=date"`
//	    Nick    *string           `description:"optional display name"`
//	    Secret  string            `fast:"exclude"`
//	    Extra   map[string]any    `fast:"extra"`
//	}
//
// Pointer and interface fields are optional. Other fields are required when
// tagged required, or when the model (DefaultRequired) or the package
// (fastser.SetDefaultRequired) says so, unless they have a default.
//
// File layout
//   - model.go: compilation, construction, dump and JSON Schema of struct models.
//   - typed.go: Model[T], the typed facade implementing fastser.Model[T].
//   - fortype.go: validator derivation from Go types and tags.
//   - scalars.go, containers.go, check.go: validators.
//   - serialize.go: ValueSerializer and Include/Exclude selection.
//   - convert.go: narrowing validated values to field types.
//
// Example
//
//	m := dsl.MustModel[User](dsl.Unknown(fastser.UnknownStrict))
//	u, err := m.Construct(ctx, map[string]any{"id": "7", "user_name": "ann"})
//	out, _ := m.Dump(ctx, u, fastser.SerializeOpt{Mode: fastser.ModeJSON, ByAlias: true})
//	sch, _ := m.JSONSchema()
package dsl
