// Package openapi exports model schemas as OpenAPI 3.0 documents built with
// kin-openapi.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"

	js "github.com/reoring/fastser/jsonschema"
)

// Describer is a model that can project itself into JSON Schema.
// *dsl.Model implements it.
type Describer interface {
	Name() string
	JSONSchema() (*js.Schema, error)
}

const componentPrefix = "#/components/schemas/"

// Schema converts a JSON Schema projection into an OpenAPI 3.0 schema.
// Constructs OpenAPI 3.0 cannot express are approximated and reported in the
// returned Diag.
func Schema(s *js.Schema) (*openapi3.Schema, Diag) {
	if s == nil {
		return &openapi3.Schema{}, &simpleDiag{}
	}
	c := &converter{d: &simpleDiag{}}
	return c.schema(s, ""), c.d
}

// Document builds a document with one component schema per model, keyed by
// model name. Nested models that are components themselves become $refs.
// The result is validated with kin-openapi before it is returned.
func Document(ctx context.Context, info Info, models ...Describer) (*openapi3.T, Diag, error) {
	c := &converter{d: &simpleDiag{}, components: map[string]*openapi3.Schema{}}
	schemas := make([]*js.Schema, len(models))
	for i, m := range models {
		s, err := m.JSONSchema()
		if err != nil {
			return nil, c.d, fmt.Errorf("openapi: %s: %w", m.Name(), err)
		}
		if _, dup := c.components[m.Name()]; dup {
			return nil, c.d, fmt.Errorf("openapi: duplicate component %q", m.Name())
		}
		schemas[i] = s
		// filled below; refs created meanwhile point at it
		c.components[m.Name()] = &openapi3.Schema{}
	}

	doc := &openapi3.T{
		OpenAPI:    Version,
		Info:       &openapi3.Info{Title: info.Title, Version: info.Version, Description: info.Description},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}
	for i, m := range models {
		comp := c.components[m.Name()]
		*comp = *c.schema(schemas[i], "/"+m.Name())
		doc.Components.Schemas[m.Name()] = openapi3.NewSchemaRef("", comp)
	}
	if err := doc.Validate(ctx, openapi3.DisableSchemaFormatValidation(), openapi3.DisableExamplesValidation()); err != nil {
		return nil, c.d, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, c.d, nil
}

// Load reads a JSON or YAML document and validates it.
func Load(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableSchemaFormatValidation(), openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// ValidateDump checks a JSON-mode dump against the component schema name.
func ValidateDump(doc *openapi3.T, name string, dumped any) error {
	if doc == nil || doc.Components == nil {
		return errors.New("openapi: document has no components")
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("openapi: unknown component %q", name)
	}
	v, err := jsonValue(dumped)
	if err != nil {
		return err
	}
	return ref.Value.VisitJSON(v)
}

type converter struct {
	d          *simpleDiag
	components map[string]*openapi3.Schema
}

// ref converts s, pointing at a component when s is a registered model.
func (c *converter) ref(s *js.Schema, at string) *openapi3.SchemaRef {
	if s == nil {
		return nil
	}
	comp, ok := c.components[s.Title]
	if !ok || s.Type != "object" {
		return openapi3.NewSchemaRef("", c.schema(s, at))
	}
	r := openapi3.NewSchemaRef(componentPrefix+s.Title, comp)
	if !s.Nullable && !s.Deprecated && s.Default == nil {
		return r
	}
	// siblings of $ref are ignored in 3.0
	return openapi3.NewSchemaRef("", &openapi3.Schema{
		Nullable:   s.Nullable,
		Deprecated: s.Deprecated,
		Default:    c.value(s.Default, at+"/default"),
		AllOf:      openapi3.SchemaRefs{r},
	})
}

func (c *converter) schema(s *js.Schema, at string) *openapi3.Schema {
	out := &openapi3.Schema{
		Title:       s.Title,
		Description: s.Description,
		Format:      s.Format,
		Default:     c.value(s.Default, at+"/default"),
		Nullable:    s.Nullable,
		Deprecated:  s.Deprecated,
		Pattern:     s.Pattern,
		UniqueItems: s.UniqueItems,
		Min:         s.Minimum,
		Max:         s.Maximum,
	}
	if s.Type != "" {
		out.Type = &openapi3.Types{s.Type}
	}
	for _, e := range s.Enum {
		out.Enum = append(out.Enum, c.value(e, at+"/enum"))
	}
	if s.MinLength != nil {
		out.MinLength = uint64(*s.MinLength)
	}
	if s.MaxLength != nil {
		n := uint64(*s.MaxLength)
		out.MaxLength = &n
	}
	if s.MinItems != nil {
		out.MinItems = uint64(*s.MinItems)
	}
	if s.MaxItems != nil {
		n := uint64(*s.MaxItems)
		out.MaxItems = &n
	}

	for _, k := range propertyOrder(s) {
		if out.Properties == nil {
			out.Properties = make(openapi3.Schemas, len(s.Properties))
		}
		out.Properties[k] = c.ref(s.Properties[k], at+"/properties/"+k)
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	switch ap := s.AdditionalProperties.(type) {
	case bool:
		out.AdditionalProperties = openapi3.AdditionalProperties{Has: &ap}
	case *js.Schema:
		out.AdditionalProperties = openapi3.AdditionalProperties{Schema: c.ref(ap, at+"/additionalProperties")}
	}

	if s.Items != nil {
		out.Items = c.ref(s.Items, at+"/items")
	}
	if len(s.PrefixItems) > 0 {
		alts := make(openapi3.SchemaRefs, len(s.PrefixItems))
		for i, p := range s.PrefixItems {
			alts[i] = c.ref(p, fmt.Sprintf("%s/prefixItems/%d", at, i))
		}
		out.Items = openapi3.NewSchemaRef("", &openapi3.Schema{AnyOf: alts})
		c.d.warnf("%s: tuple positions approximated by items.anyOf", pathOrRoot(at))
	}
	for i, a := range s.AnyOf {
		out.AnyOf = append(out.AnyOf, c.ref(a, fmt.Sprintf("%s/anyOf/%d", at, i)))
	}
	return out
}

// value normalizes Go values to their JSON form (numbers become float64).
func (c *converter) value(v any, at string) any {
	if v == nil {
		return nil
	}
	out, err := jsonValue(v)
	if err != nil {
		c.d.warnf("%s: dropped value: %v", pathOrRoot(at), err)
		return nil
	}
	return out
}

func jsonValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("openapi: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("openapi: decode value: %w", err)
	}
	return out, nil
}

func propertyOrder(s *js.Schema) []string {
	if len(s.PropertyOrder) == len(s.Properties) {
		return s.PropertyOrder
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
