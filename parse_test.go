package fastser_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/dsl"
)

type account struct {
	ID      int64           `json:"id" fast:"required"`
	Name    string          `json:"name" fast:"required,min_len=1"`
	Tags    []string        `json:"tags"`
	Balance decimal.Decimal `json:"balance"`
}

func requireIssue(t *testing.T, err error, code, path string) {
	t.Helper()
	require.Error(t, err)
	iss, ok := fastser.AsIssues(err)
	require.True(t, ok, "not an issues error: %v", err)
	for _, it := range iss {
		if it.Code == code && it.Path == path {
			return
		}
	}
	t.Fatalf("issue %s at %s not found in %v", code, path, iss)
}

func TestParseJSON_Coerces(t *testing.T) {
	m := dsl.MustModel[account]()
	got, err := fastser.ParseJSON(context.Background(), m, []byte(`{"id":"7","name":"ann","tags":["a","b"],"balance":"1.50"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "ann", got.Name)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, decimal.RequireFromString("1.5").Equal(got.Balance))
}

func TestParseJSON_ValidationError(t *testing.T) {
	m := dsl.MustModel[account]()
	_, err := fastser.ParseJSON(context.Background(), m, []byte(`{"id":"x","tags":["ok",{}]}`))
	var ve *fastser.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "account", ve.Model)
	requireIssue(t, err, "int_parsing", "/id")
	requireIssue(t, err, fastser.CodeMissing, "/name")
	requireIssue(t, err, "string_type", "/tags/1")
	assert.ErrorIs(t, err, fastser.ErrMissing)
}

func TestParseJSON_FailFast(t *testing.T) {
	m := dsl.MustModel[account]()
	_, err := fastser.ParseJSON(context.Background(), m, []byte(`{"id":"x"}`), fastser.ParseOpt{FailFast: true})
	iss, ok := fastser.AsIssues(err)
	require.True(t, ok)
	assert.Len(t, iss, 1)
}

func TestParseJSON_DuplicateKeys(t *testing.T) {
	m := dsl.MustModel[account]()
	data := []byte(`{"id":1,"name":"a","id":2}`)

	got, err := fastser.ParseJSON(context.Background(), m, data)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID, "last duplicate wins when ignored")

	_, err = fastser.ParseJSON(context.Background(), m, data, fastser.ParseOpt{Strictness: fastser.Strictness{OnDuplicateKey: fastser.Error}})
	requireIssue(t, err, fastser.CodeDuplicateKey, "/id")

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	_, err = fastser.ParseJSON(context.Background(), m, data, fastser.ParseOpt{
		Strictness: fastser.Strictness{OnDuplicateKey: fastser.Warn},
		Logger:     log,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "duplicate_key")
}

func TestParseJSON_Limits(t *testing.T) {
	m := dsl.MustModel[account]()
	_, err := fastser.ParseJSON(context.Background(), m, []byte(`{"id":1,"name":"a","tags":[["x"]]}`), fastser.ParseOpt{MaxDepth: 2})
	requireIssue(t, err, fastser.CodeParseError, "/tags/0")

	_, err = fastser.StreamParse(context.Background(), m, strings.NewReader(`{"id":1,"name":"abcdefghijklmnop"}`), fastser.ParseOpt{MaxBytes: 10})
	requireIssue(t, err, fastser.CodeTruncated, "/")

	got, err := fastser.StreamParse(context.Background(), m, strings.NewReader(`{"id":1,"name":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func TestParseJSON_Malformed(t *testing.T) {
	m := dsl.MustModel[account]()
	_, err := fastser.ParseJSON(context.Background(), m, []byte(`{"id":1`))
	requireIssue(t, err, fastser.CodeParseError, "/")

	_, err = fastser.ParseJSON(context.Background(), m, []byte(`[1,2]`))
	requireIssue(t, err, fastser.CodeModelType, "/")
}

func TestParseJSON_NumberModes(t *testing.T) {
	m := dsl.MustModel[account]()
	got, err := fastser.ParseJSON(context.Background(), m, []byte(`{"id":1,"name":"a","balance":0.1}`),
		fastser.ParseOpt{Numbers: fastser.NumberDecimal})
	require.NoError(t, err)
	assert.Equal(t, "0.1", got.Balance.String())

	_, err = fastser.ParseJSON(context.Background(), m, []byte(`{"id":1.9,"name":"a"}`),
		fastser.ParseOpt{Numbers: fastser.NumberJSONNumber})
	require.NoError(t, err)
}

func TestParseJSON_UnknownPolicy(t *testing.T) {
	m := dsl.MustModel[account]()
	data := []byte(`{"id":1,"name":"a","zzz":true,"aaa":1}`)
	_, err := fastser.ParseJSON(context.Background(), m, data)
	require.NoError(t, err)

	_, err = fastser.ParseJSON(context.Background(), m, data, fastser.ParseOpt{Unknown: fastser.UnknownPtr(fastser.UnknownStrict)})
	iss, ok := fastser.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 2)
	assert.Equal(t, "/aaa", iss[0].Path)
	assert.Equal(t, "/zzz", iss[1].Path)
}

func TestParseFromWithMeta_Presence(t *testing.T) {
	m := dsl.MustModel[account]()
	d, err := fastser.ParseFromWithMeta(context.Background(), m, fastser.JSONBytes([]byte(`{"id":1,"name":"a","tags":null}`)))
	require.NoError(t, err)
	assert.True(t, d.Presence.Set("/id"))
	assert.True(t, d.Presence.Set("/tags"))
	assert.NotZero(t, d.Presence["/tags"]&fastser.PresenceWasNull)
	assert.False(t, d.Presence.Set("/balance"))
	assert.Nil(t, d.Value.Tags)
}

func TestParseYAML(t *testing.T) {
	m := dsl.MustModel[account]()
	got, err := fastser.ParseYAML(context.Background(), m, []byte("id: 3\nname: yml\ntags: [x, y]\nbalance: 2.5\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, []string{"x", "y"}, got.Tags)
	assert.Equal(t, "2.5", got.Balance.String())

	_, err = fastser.ParseYAML(context.Background(), m, []byte("id: [\n"))
	requireIssue(t, err, fastser.CodeParseError, "/")

	_, err = fastser.ParseYAML(context.Background(), m, []byte("? [a]\n: 1\n"))
	requireIssue(t, err, fastser.CodeParseError, "/")
}

func TestParseYAML_ParseOptions(t *testing.T) {
	ctx := context.Background()
	m := dsl.MustModel[account]()

	dup := []byte("id: 1\nname: a\nid: 2\n")
	got, err := fastser.ParseYAML(ctx, m, dup)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID, "last duplicate wins when ignored")
	_, err = fastser.ParseYAML(ctx, m, dup, fastser.ParseOpt{Strictness: fastser.Strictness{OnDuplicateKey: fastser.Error}})
	requireIssue(t, err, fastser.CodeDuplicateKey, "/id")

	_, err = fastser.ParseYAML(ctx, m, []byte("id: 1\nname: a\ntags: [[x]]\n"), fastser.ParseOpt{MaxDepth: 2})
	requireIssue(t, err, fastser.CodeParseError, "/tags/0")

	got, err = fastser.ParseYAML(ctx, m, []byte("id: 1\nname: a\nbalance: 0.1\n"), fastser.ParseOpt{Numbers: fastser.NumberDecimal})
	require.NoError(t, err)
	assert.Equal(t, "0.1", got.Balance.String())

	_, err = fastser.ParseYAML(ctx, m, []byte("id: 1\nname: abcdefghijklmnop\n"), fastser.ParseOpt{MaxBytes: 10})
	requireIssue(t, err, fastser.CodeTruncated, "/")

	anchors := []byte("base: &b\n  id: 4\n  name: z\nid: 4\nname: z\ntags: [*b]\n")
	_, err = fastser.ParseYAML(ctx, m, anchors, fastser.ParseOpt{Unknown: fastser.UnknownPtr(fastser.UnknownIgnore)})
	require.Error(t, err, "alias expands to an object where a string is expected")
}

func TestJSONDriver_Swap(t *testing.T) {
	assert.Equal(t, "go-json", fastser.CurrentJSONDriver().Name())
	fastser.SetJSONDriver(nil)
	assert.Equal(t, "go-json", fastser.CurrentJSONDriver().Name())
}
