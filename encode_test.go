package fastser_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/dsl"
)

type event struct {
	Name  string    `json:"name" fast:"required,min_len=1"`
	At    time.Time `json:"at"`
	Count int       `json:"count" fast:"min=0"`
	Notes []string  `json:"notes,omitempty"`
}

func TestDumpJSON(t *testing.T) {
	m := dsl.MustModel[event]()
	ev := event{Name: "deploy", At: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), Count: 2}
	b, err := fastser.DumpJSON(context.Background(), m, ev, fastser.SerializeOpt{ExcludeNone: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"deploy","at":"2024-05-01T12:30:00Z","count":2}`, string(b))

	back, err := fastser.ParseJSON(context.Background(), m, b)
	require.NoError(t, err)
	if diff := cmp.Diff(ev, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDumpYAML(t *testing.T) {
	m := dsl.MustModel[event]()
	ev := event{Name: "y", Notes: []string{"a"}}
	b, err := fastser.DumpYAML(context.Background(), m, ev, fastser.SerializeOpt{})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(b, &got))
	assert.Equal(t, "y", got["name"])
	assert.Equal(t, []any{"a"}, got["notes"])

	back, err := fastser.ParseYAML(context.Background(), m, b)
	require.NoError(t, err)
	assert.Equal(t, ev.Notes, back.Notes)
}

func TestApplyPatch_Revalidates(t *testing.T) {
	m := dsl.MustModel[event]()
	ev := event{Name: "a", Count: 1}

	got, err := fastser.ApplyPatch(context.Background(), m, ev, []byte(`[{"op":"replace","path":"/count","value":"5"},{"op":"add","path":"/notes","value":["n"]}]`))
	require.NoError(t, err)
	assert.Equal(t, 5, got.Count)
	assert.Equal(t, []string{"n"}, got.Notes)
	assert.Equal(t, 1, ev.Count, "input must not change")

	_, err = fastser.ApplyPatch(context.Background(), m, ev, []byte(`[{"op":"replace","path":"/count","value":-1}]`))
	requireIssue(t, err, fastser.CodeTooSmall, "/count")

	_, err = fastser.ApplyPatch(context.Background(), m, ev, []byte(`{"op":"nope"}`))
	requireIssue(t, err, fastser.CodeParseError, "/")
}

func TestApplyMergePatch(t *testing.T) {
	m := dsl.MustModel[event]()
	got, err := fastser.ApplyMergePatch(context.Background(), m, event{Name: "a", Count: 3}, []byte(`{"name":"b","count":null}`))
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, 0, got.Count)

	_, err = fastser.ApplyMergePatch(context.Background(), m, event{Name: "a"}, []byte(`{"name":""}`))
	requireIssue(t, err, fastser.CodeTooShort, "/name")
}

func TestSettings_DefaultRequired(t *testing.T) {
	type loose struct {
		A int `json:"a"`
	}
	prev := fastser.DefaultRequired()
	t.Cleanup(func() { fastser.SetDefaultRequired(prev) })

	fastser.SetDefaultRequired(true)
	m, err := dsl.ModelOf[loose](dsl.Title("strict loose"))
	require.NoError(t, err)
	_, err = m.Construct(context.Background(), map[string]any{})
	requireIssue(t, err, fastser.CodeMissing, "/a")
}
