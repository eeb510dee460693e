package fastser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fastser "github.com/reoring/fastser"
	"github.com/reoring/fastser/coerce"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := fastser.Issues{
		{Path: "/a", Code: fastser.CodeInvalidType},
		{Path: "/b", Code: fastser.CodeUnknownKey},
		{Path: "", Code: fastser.CodeTooShort},
		{Path: "/d", Code: fastser.CodeTooLong},
	}
	assert.Equal(t, "invalid_type at /a; unknown_key at /b; too_short at /; ... (total 4)", iss.Error())
	assert.Equal(t, "", fastser.Issues{}.Error())
}

func TestIssues_Rebase(t *testing.T) {
	iss := fastser.Issues{{Path: "/"}, {Path: "/0/name"}}
	got := iss.Rebase("/items")
	assert.Equal(t, "/items", got[0].Path)
	assert.Equal(t, "/items/0/name", got[1].Path)
	assert.Equal(t, "/", iss[0].Path, "rebase must not mutate the receiver")
	assert.Equal(t, iss, iss.Rebase(""))
}

func TestAsIssues_FromCoerceError(t *testing.T) {
	_, err := coerce.Int("abc")
	require.Error(t, err)
	iss, ok := fastser.AsIssues(coerce.At(err, "items", 2))
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/items/2", iss[0].Path)
	assert.Equal(t, coerce.CodeIntParsing, iss[0].Code)
	assert.Equal(t, "abc", iss[0].Input)
}

func TestToIssues_PlainErrorIsValueError(t *testing.T) {
	iss := fastser.ToIssues(errors.New("boom"))
	require.Len(t, iss, 1)
	assert.Equal(t, "value_error", iss[0].Code)
	assert.Equal(t, "boom", iss[0].Message)
	assert.Nil(t, fastser.ToIssues(nil))
}

func TestValidationError_FormatAndUnwrap(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	ve := &fastser.ValidationError{
		Model: "User",
		Issues: fastser.Issues{
			fastser.NewIssue("/age", fastser.CodeMissing, nil),
			{Path: "/", Code: fastser.CodePostInit, Message: "post init failed", Cause: sentinel},
		},
		Fields: []*fastser.FieldError{{Field: "Age", Key: "age", Err: fastser.ErrMissing}},
	}
	msg := ve.Error()
	assert.True(t, strings.HasPrefix(msg, "2 validation errors for User\n"), msg)
	assert.Contains(t, msg, "\n  /age\n    field required [type=missing]")

	assert.ErrorIs(t, ve, fastser.ErrMissing)
	assert.ErrorIs(t, ve, sentinel)
	require.NotNil(t, ve.Field("Age"))
	assert.Same(t, ve.Fields[0], ve.Field("age"))
	assert.Nil(t, ve.Field("name"))

	var iss fastser.Issues
	require.ErrorAs(t, ve, &iss)
	assert.Len(t, iss, 2)
}

func TestValidationError_Singular(t *testing.T) {
	ve := &fastser.ValidationError{Model: "M", Issues: fastser.Issues{{Path: "/x", Code: "c", Message: "m"}}}
	assert.Equal(t, "1 validation error for M\n  /x\n    m [type=c]", ve.Error())
}

func TestDefinitionError(t *testing.T) {
	inner := errors.New("bad tag")
	err := &fastser.DefinitionError{Model: "User", Field: "Age", Err: inner}
	assert.Equal(t, "fastser: model User field Age: bad tag", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "fastser: model User: bad tag", (&fastser.DefinitionError{Model: "User", Err: inner}).Error())
}

func TestPathRef(t *testing.T) {
	p := fastser.Root().Field("a/b").Index(3).Field("c~d")
	assert.Equal(t, "/a~1b/3/c~0d", p.Pointer())
	assert.Equal(t, "/", fastser.Root().Pointer())
	assert.Equal(t, "", fastser.Root().Prefix())
	assert.Equal(t, "/x/1", fastser.At("/x/1").Pointer())

	it := fastser.Root().Field("age").Issue(fastser.CodeTooSmall, "too small", "min", 1)
	assert.Equal(t, "/age", it.Path)
	assert.Equal(t, map[string]any{"min": 1}, it.Params)
}

func TestPresenceMap(t *testing.T) {
	pm := fastser.PresenceMap{}
	pm.Mark("/a", fastser.PresenceSeen)
	pm.Mark("/b", fastser.PresenceWasNull)
	pm.Mark("/c", fastser.PresenceDefaultApplied)
	assert.True(t, pm.Set("/a"))
	assert.True(t, pm.Set("/b"))
	assert.False(t, pm.Set("/c"))
	assert.True(t, pm.DefaultOnly("/c"))
	assert.False(t, pm.DefaultOnly("/a"))

	outer := fastser.PresenceMap{}
	outer.Merge("/child", fastser.PresenceMap{"/": fastser.PresenceSeen, "/x": fastser.PresenceSeen})
	assert.True(t, outer.Set("/child"))
	assert.True(t, outer.Set("/child/x"))

	var nilMap fastser.PresenceMap
	nilMap.Mark("/a", fastser.PresenceSeen)
	assert.False(t, nilMap.Set("/a"))
}
