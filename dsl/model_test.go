package dsl_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/dsl"
)

type Address struct {
	City string `json:"city" fast:"required"`
	Zip  string `json:"zip" pattern:"^[0-9]{5}$"`
}

type User struct {
	ID     int64    `json:"id" fast:"required,min=1"`
	Name   string   `json:"name" fast:"alias=userName,serialize_alias=UserName,min_len=1"`
	Email  string   `json:"email" validate:"omitempty,email"`
	Age    int      `json:"age" fast:"default=18" check:"value >= 0 && value < 150"`
	Role   string   `json:"role" fast:"oneof=admin|member,default=member"`
	Home   *Address `json:"home"`
	Tags   []string `json:"tags" fast:"max_len=3"`
	Secret string   `json:"secret" fast:"exclude"`
}

func issueAt(t *testing.T, err error, path string) fastser.Issue {
	t.Helper()
	iss, ok := fastser.AsIssues(err)
	require.True(t, ok, "not an issues error: %v", err)
	for _, it := range iss {
		if it.Path == path {
			return it
		}
	}
	t.Fatalf("no issue at %s in %v", path, iss)
	return fastser.Issue{}
}

func TestConstruct_Coerces(t *testing.T) {
	m := dsl.MustModel[User]()
	u, err := m.Construct(context.Background(), map[string]any{
		"id":       "5",
		"userName": "ann",
		"home":     map[string]any{"city": "Oslo"},
		"tags":     []any{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, "ann", u.Name)
	assert.Equal(t, 18, u.Age)
	assert.Equal(t, "member", u.Role)
	require.NotNil(t, u.Home)
	assert.Equal(t, "Oslo", u.Home.City)
	assert.Equal(t, []string{"a"}, u.Tags)
}

func TestConstruct_AliasWinsOverKey(t *testing.T) {
	m := dsl.MustModel[User]()
	u, err := m.Construct(context.Background(), map[string]any{"id": 1, "userName": "a", "name": "b"})
	require.NoError(t, err)
	assert.Equal(t, "a", u.Name)
}

func TestConstruct_CollectsAllIssues(t *testing.T) {
	m := dsl.MustModel[User]()
	_, err := m.Construct(context.Background(), map[string]any{
		"id":    0,
		"name":  "",
		"email": "bad",
		"age":   200,
		"role":  "owner",
		"home":  map[string]any{"zip": "12"},
		"tags":  []string{"a", "b", "c", "d"},
	})
	var ve *fastser.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "User", ve.Model)

	want := map[string]string{
		"/id":        fastser.CodeTooSmall,
		"/name":      fastser.CodeTooShort,
		"/email":     fastser.CodeConstraint,
		"/age":       fastser.CodeCheck,
		"/role":      fastser.CodeLiteral,
		"/home/city": fastser.CodeMissing,
		"/home/zip":  fastser.CodePattern,
		"/tags":      fastser.CodeIterTooLong,
	}
	for path, code := range want {
		assert.Equal(t, code, issueAt(t, err, path).Code, path)
	}
	assert.Len(t, ve.Issues, len(want))

	home := ve.Field("Home")
	require.NotNil(t, home)
	var nested *fastser.ValidationError
	require.ErrorAs(t, home.Err, &nested)
	assert.Equal(t, "Address", nested.Model)
	assert.Equal(t, "/city", nested.Issues[0].Path)
	assert.Equal(t, "email", issueAt(t, err, "/email").Params["rule"])
}

func TestConstruct_Missing(t *testing.T) {
	m := dsl.MustModel[User]()
	for _, in := range []map[string]any{{}, {"id": nil}} {
		_, err := m.Construct(context.Background(), in)
		assert.ErrorIs(t, err, fastser.ErrMissing)
		assert.Equal(t, fastser.CodeMissing, issueAt(t, err, "/id").Code)
	}
}

func TestConstruct_FailFast(t *testing.T) {
	m := dsl.MustModel[User]()
	ctx := fastser.WithFailFast(context.Background(), true)
	_, err := m.Construct(ctx, map[string]any{"id": "x", "name": "", "tags": []any{1, 2, 3, 4}})
	iss, ok := fastser.AsIssues(err)
	require.True(t, ok)
	assert.Len(t, iss, 1)
	assert.Equal(t, "/id", iss[0].Path)
}

func TestConstruct_NotAMapping(t *testing.T) {
	m := dsl.MustModel[User]()
	for _, in := range []any{nil, 3, "x", []any{1}, map[int]any{1: 2}} {
		_, err := m.Construct(context.Background(), in)
		assert.Equal(t, fastser.CodeModelType, issueAt(t, err, "/").Code, "%#v", in)
	}
}

func TestConstruct_FromStructRevalidates(t *testing.T) {
	m := dsl.MustModel[User]()
	u, err := m.Construct(context.Background(), User{ID: 3, Name: "x", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)

	u2, err := m.Construct(context.Background(), &u)
	require.NoError(t, err)
	assert.Equal(t, u, u2)

	_, err = m.Construct(context.Background(), User{})
	assert.Equal(t, fastser.CodeTooSmall, issueAt(t, err, "/id").Code)
}

func TestConstruct_UnknownPolicies(t *testing.T) {
	in := map[string]any{"id": 1, "b": 1, "a": 2}

	_, err := dsl.MustModel[User]().Construct(context.Background(), in)
	require.NoError(t, err)

	strict := dsl.MustModel[User](dsl.Unknown(fastser.UnknownStrict))
	_, err = strict.Construct(context.Background(), in)
	iss, ok := fastser.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 2)
	assert.Equal(t, []string{"/a", "/b"}, []string{iss[0].Path, iss[1].Path})
	assert.Equal(t, fastser.CodeUnknownKey, iss[0].Code)

	ctx := fastser.WithUnknownPolicy(context.Background(), fastser.UnknownIgnore)
	_, err = strict.Construct(ctx, in)
	assert.NoError(t, err, "context policy overrides the model")
}

type Open struct {
	Name  string         `json:"name"`
	Extra map[string]any `fast:"extra"`
}

func TestConstruct_Passthrough(t *testing.T) {
	m := dsl.MustModel[Open](dsl.Unknown(fastser.UnknownPassthrough))
	o, err := m.Construct(context.Background(), map[string]any{"name": "n", "x": 1, "y": "z"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1, "y": "z"}, o.Extra)

	out, err := m.Dump(context.Background(), o, fastser.SerializeOpt{Mode: fastser.ModeJSON})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "n", "x": int64(1), "y": "z"}, out)
}

var errBadRange = errors.New("lo must not exceed hi")

type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

func (r *Range) PostInit(ctx context.Context) error {
	if r.Lo > r.Hi {
		return errBadRange
	}
	if limit, ok := fastser.Service[int](ctx); ok && r.Hi > limit {
		return fastser.Issues{fastser.Root().Field("hi").Issue(fastser.CodeTooBig, "above limit")}
	}
	return nil
}

func TestConstruct_PostInit(t *testing.T) {
	m := dsl.MustModel[Range]()
	_, err := m.Construct(context.Background(), map[string]any{"lo": 2, "hi": 1})
	assert.ErrorIs(t, err, errBadRange)
	assert.Equal(t, fastser.CodePostInit, issueAt(t, err, "/").Code)

	ctx := fastser.WithService(context.Background(), 10)
	_, err = m.Construct(ctx, map[string]any{"lo": 1, "hi": 11})
	assert.Equal(t, fastser.CodeTooBig, issueAt(t, err, "/hi").Code)

	r, err := m.Construct(ctx, map[string]any{"lo": 1, "hi": 9})
	require.NoError(t, err)
	assert.Equal(t, Range{Lo: 1, Hi: 9}, r)
}

func TestConstructWithMeta_Presence(t *testing.T) {
	m := dsl.MustModel[User]()
	d, err := m.ConstructWithMeta(context.Background(), map[string]any{
		"id":   1,
		"home": map[string]any{"city": "x"},
		"tags": nil,
	})
	require.NoError(t, err)
	pm := d.Presence
	assert.True(t, pm.Set("/id"))
	assert.True(t, pm.Set("/home"))
	assert.True(t, pm.Set("/home/city"))
	assert.False(t, pm.Set("/home/zip"))
	assert.True(t, pm.Set("/tags"))
	assert.NotZero(t, pm["/tags"]&fastser.PresenceWasNull)
	assert.True(t, pm.DefaultOnly("/age"))
	assert.False(t, pm.Set("/email"))
}

type Base struct {
	ID   int    `json:"id"`
	Kind string `json:"kind" fast:"default=base"`
}

type Derived struct {
	Base
	Kind string `json:"kind" fast:"default=derived"`
	More string `json:"more"`
}

func TestModel_EmbeddedFields(t *testing.T) {
	m := dsl.MustModel[Derived]()
	var keys []string
	for _, f := range m.Fields() {
		keys = append(keys, f.Tag.Key)
	}
	assert.Equal(t, []string{"id", "kind", "more"}, keys)

	d, err := m.Construct(context.Background(), map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, d.ID)
	assert.Equal(t, "derived", d.Kind)
	assert.Equal(t, "", d.Base.Kind)
}

type Node struct {
	Value    int    `json:"value" fast:"required"`
	Children []Node `json:"children"`
	Next     *Node  `json:"next"`
}

func TestModel_RecursiveType(t *testing.T) {
	m := dsl.MustModel[Node]()
	n, err := m.Construct(context.Background(), map[string]any{
		"value":    1,
		"children": []any{map[string]any{"value": 2}},
		"next":     map[string]any{"value": 3},
	})
	require.NoError(t, err)
	require.Len(t, n.Children, 1)
	assert.Equal(t, 2, n.Children[0].Value)
	assert.Equal(t, 3, n.Next.Value)

	_, err = m.Construct(context.Background(), map[string]any{
		"value":    1,
		"children": []any{map[string]any{"value": "x"}},
	})
	assert.Equal(t, "int_parsing", issueAt(t, err, "/children/0/value").Code)

	sch, err := m.JSONSchema()
	require.NoError(t, err)
	assert.Equal(t, "Node", sch.Properties["next"].Title)
}

type Branch struct {
	Name   string    `json:"name" fast:"required"`
	Leaves []Leaf    `json:"leaves"`
	Forks  []*Branch `json:"forks"`
}

type Leaf struct {
	Weight int     `json:"weight" fast:"min=0"`
	Parent *Branch `json:"parent"`
}

// Branch and Leaf are compiled for the first time by the goroutines below.
func TestModel_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	in := map[string]any{
		"name":   "root",
		"leaves": []any{map[string]any{"weight": "2"}},
		"forks":  []any{map[string]any{"name": "f", "leaves": []any{map[string]any{"weight": 1}}}},
	}
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if i%4 == 0 {
				_, err := dsl.ForType(reflect.TypeOf(Leaf{}), fastser.FieldTag{})
				assert.NoError(t, err)
			}
			m, err := dsl.ModelOf[Branch]()
			if !assert.NoError(t, err) {
				return
			}
			b, err := m.Construct(ctx, in)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, 2, b.Leaves[0].Weight)
			out, err := m.Dump(ctx, b, fastser.SerializeOpt{Mode: fastser.ModeJSON})
			if !assert.NoError(t, err) {
				return
			}
			back, err := m.Construct(ctx, out)
			assert.NoError(t, err)
			again, err := m.Dump(ctx, back, fastser.SerializeOpt{Mode: fastser.ModeJSON})
			assert.NoError(t, err)
			assert.Equal(t, out, again)
			sch, err := m.JSONSchema()
			if assert.NoError(t, err) {
				assert.Equal(t, []string{"name"}, sch.Required)
			}
			_, err = m.Construct(ctx, map[string]any{"leaves": []any{map[string]any{"weight": -1}}})
			assert.Error(t, err)
		}(i)
	}
	close(start)
	wg.Wait()
}

func TestModel_Options(t *testing.T) {
	var calls int
	m, err := dsl.ModelOf[User](
		dsl.Title("Account"),
		dsl.WithValidator("Name", fastser.ValidatorFunc(func(_ context.Context, v any) (any, error) {
			calls++
			if v == "root" {
				return nil, errBadRange
			}
			return v, nil
		})),
		dsl.WithDefaultFactory("tags", func() any { return []string{"new"} }),
	)
	require.NoError(t, err)
	assert.Equal(t, "Account", m.Name())

	u, err := m.Construct(context.Background(), map[string]any{"id": 1, "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, u.Tags)
	assert.Equal(t, 1, calls)

	u2, err := m.Construct(context.Background(), map[string]any{"id": 1})
	require.NoError(t, err)
	u2.Tags[0] = "changed"
	assert.Equal(t, []string{"new"}, u.Tags, "factory defaults are not shared")

	_, err = m.Construct(context.Background(), map[string]any{"id": 1, "name": "root"})
	it := issueAt(t, err, "/name")
	assert.Equal(t, "value_error", it.Code)
	assert.ErrorIs(t, err, errBadRange)

	shared := dsl.MustModel[User]()
	assert.Equal(t, "User", shared.Name(), "options do not leak into the shared model")
}

type Legacy struct {
	Old string `json:"old" fast:"deprecated"`
}

func TestConstruct_DeprecatedFieldLogs(t *testing.T) {
	var buf bytes.Buffer
	m := dsl.MustModel[Legacy](dsl.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	_, err := m.Construct(context.Background(), map[string]any{"old": "x"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "deprecated field")
	assert.Contains(t, buf.String(), "field=old")
}

func TestModelOf_DefinitionErrors(t *testing.T) {
	type mutableDefault struct {
		Tags []string `fast:"default=a"`
	}
	type badCheck struct {
		N int `check:"value >>> 1"`
	}
	type badRule struct {
		S string `validate:"no_such_rule"`
	}
	type badDefault struct {
		N int `fast:"default=abc"`
	}
	type badChan struct {
		C chan int
	}
	type dupKey struct {
		A string `json:"x"`
		B string `json:"x"`
	}
	type badPattern struct {
		S string `pattern:"("`
	}
	type badExtra struct {
		E map[string]int `fast:"extra"`
	}

	errs := map[string]error{}
	_, errs["mutable"] = dsl.ModelOf[mutableDefault]()
	_, errs["check"] = dsl.ModelOf[badCheck]()
	_, errs["rule"] = dsl.ModelOf[badRule]()
	_, errs["default"] = dsl.ModelOf[badDefault]()
	_, errs["chan"] = dsl.ModelOf[badChan]()
	_, errs["dup"] = dsl.ModelOf[dupKey]()
	_, errs["pattern"] = dsl.ModelOf[badPattern]()
	_, errs["extra"] = dsl.ModelOf[badExtra]()
	_, errs["not struct"] = dsl.ModelOf[int]()
	_, errs["both defaults"] = dsl.ModelOf[Range](dsl.WithDefault("lo", 1), dsl.WithDefaultFactory("lo", func() any { return 2 }))
	_, errs["unknown option"] = dsl.ModelOf[Range](dsl.WithValidator("nope", dsl.Int()))

	for name, err := range errs {
		var de *fastser.DefinitionError
		assert.ErrorAs(t, err, &de, name)
	}
	assert.Panics(t, func() { dsl.MustModel[badChan]() })
}

func TestModel_SafeConstructAndIs(t *testing.T) {
	m := dsl.MustModel[Range]()
	r, ok := fastser.SafeConstruct[Range](context.Background(), m, map[string]any{"lo": 1, "hi": 2})
	assert.True(t, ok)
	assert.Equal(t, 2, r.Hi)
	assert.False(t, fastser.Is[Range](context.Background(), m, map[string]any{"lo": 3, "hi": 2}))
}
