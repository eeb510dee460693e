// Package fastser validates loosely typed input into Go structs and
// serializes them back.
//
// The root package holds the public contracts and entry points:
//
//   - Model[T], Validator and Serializer capabilities
//   - the error model: ValidationError, FieldError, Issues (JSON Pointer, code, message)
//   - ParseJSON/ParseFrom/StreamParse/ParseYAML with duplicate-key, depth and size enforcement
//   - DumpJSON/DumpYAML and JSON Patch updates that revalidate
//
// Models are compiled by package dsl, scalar coercion lives in package coerce.
//
// Typical usage:
//
//	m := dsl.MustModel[User]()
//	u, err := fastser.ParseJSON(ctx, m, data)
//	out, err := m.Dump(ctx, u, fastser.SerializeOpt{Mode: fastser.ModeJSON})
package fastser
