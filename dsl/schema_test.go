package dsl_test

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/dsl"
)

func TestJSONSchema_User(t *testing.T) {
	sch, err := dsl.MustModel[User]().JSONSchema()
	require.NoError(t, err)
	dump := spew.Sdump(sch)

	assert.Equal(t, "User", sch.Title, dump)
	assert.Equal(t, "object", sch.Type, dump)
	assert.Equal(t, []string{"id", "name", "email", "age", "role", "home", "tags"}, sch.PropertyOrder, dump)
	assert.NotContains(t, sch.Properties, "secret")
	assert.Equal(t, []string{"id"}, sch.Required, dump)
	assert.Nil(t, sch.AdditionalProperties)

	id := sch.Properties["id"]
	assert.Equal(t, "integer", id.Type)
	require.NotNil(t, id.Minimum, dump)
	assert.Equal(t, 1.0, *id.Minimum)

	assert.Equal(t, int64(18), sch.Properties["age"].Default, dump)

	role := sch.Properties["role"]
	assert.Equal(t, []any{"admin", "member"}, role.Enum, dump)
	assert.Equal(t, "member", role.Default)

	home := sch.Properties["home"]
	assert.True(t, home.Nullable, dump)
	assert.Equal(t, "Address", home.Title)
	assert.Equal(t, "^[0-9]{5}$", home.Properties["zip"].Pattern, dump)
	assert.Equal(t, []string{"city"}, home.Required)

	tags := sch.Properties["tags"]
	assert.Equal(t, "array", tags.Type)
	assert.Equal(t, "string", tags.Items.Type)
	require.NotNil(t, tags.MaxItems, dump)
	assert.Equal(t, 3, *tags.MaxItems)
}

func TestJSONSchema_Options(t *testing.T) {
	type Doc struct {
		Old string `json:"old" fast:"deprecated" description:"use new"`
	}
	m := dsl.MustModel[Doc](dsl.Title("Document"), dsl.Description("a document"), dsl.Unknown(fastser.UnknownStrict))
	sch, err := m.JSONSchema()
	require.NoError(t, err)
	dump := spew.Sdump(sch)

	assert.Equal(t, "Document", sch.Title, dump)
	assert.Equal(t, "a document", sch.Description)
	assert.Equal(t, false, sch.AdditionalProperties, dump)
	assert.True(t, sch.Properties["old"].Deprecated, dump)
	assert.Equal(t, "use new", sch.Properties["old"].Description)

	b, err := json.Marshal(sch)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"additionalProperties":false`)
	assert.Contains(t, string(b), `"deprecated":true`)
}

func TestJSONSchema_ExtraAndRecursion(t *testing.T) {
	open, err := dsl.MustModel[Open]().JSONSchema()
	require.NoError(t, err)
	assert.Equal(t, true, open.AdditionalProperties, spew.Sdump(open))
	assert.NotContains(t, open.Properties, "Extra")

	node, err := dsl.MustModel[Node]().JSONSchema()
	require.NoError(t, err)
	children := node.Properties["children"]
	require.NotNil(t, children.Items, spew.Sdump(node))
	assert.Equal(t, "Node", children.Items.Title)
	assert.Nil(t, children.Items.Properties, "recursive reference is a stub")
}

func TestSchemaOf_ForeignValidator(t *testing.T) {
	fn := fastser.ValidatorFunc(func(_ context.Context, v any) (any, error) { return v, nil })
	assert.Empty(t, dsl.SchemaOf(fn).Type)
	assert.Equal(t, "integer", dsl.SchemaOf(dsl.List(dsl.Int())).Items.Type)
	assert.Len(t, dsl.SchemaOf(dsl.Tuple(dsl.Int(), dsl.String())).PrefixItems, 2)
	assert.Len(t, dsl.SchemaOf(dsl.Union(dsl.Int(), dsl.Bool())).AnyOf, 2)
	assert.True(t, dsl.SchemaOf(dsl.Set(dsl.Int())).UniqueItems)
}
