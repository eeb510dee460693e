package fastser

import (
	"context"

	jsonpatch "github.com/evanphx/json-patch"
)

// ApplyPatch applies an RFC 6902 JSON Patch to the JSON-mode dump of v and
// constructs a new, revalidated T from the result. v is not modified.
func ApplyPatch[T any](ctx context.Context, m Model[T], v T, patch []byte, opts ...ParseOpt) (T, error) {
	var zero T
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return zero, singleIssue(CodeParseError, "json patch: "+err.Error())
	}
	return updateDoc(ctx, m, v, opts, ops.Apply)
}

// ApplyMergePatch applies an RFC 7386 JSON Merge Patch to the JSON-mode dump
// of v and constructs a new, revalidated T from the result.
func ApplyMergePatch[T any](ctx context.Context, m Model[T], v T, patch []byte, opts ...ParseOpt) (T, error) {
	return updateDoc(ctx, m, v, opts, func(doc []byte) ([]byte, error) {
		return jsonpatch.MergePatch(doc, patch)
	})
}

func updateDoc[T any](ctx context.Context, m Model[T], v T, opts []ParseOpt, apply func([]byte) ([]byte, error)) (T, error) {
	var zero T
	doc, err := DumpJSON(ctx, m, v, SerializeOpt{Errors: ErrorsError})
	if err != nil {
		return zero, err
	}
	out, err := apply(doc)
	if err != nil {
		return zero, singleIssue(CodeParseError, "patch: "+err.Error())
	}
	return ParseJSON(ctx, m, out, opts...)
}
