package fastser

import (
	"context"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/fastser/internal/engine"
	"github.com/reoring/fastser/source/yamlnode"
)

// ParseFrom decodes a token Source into a loose value tree and constructs T
// from it.
func ParseFrom[T any](ctx context.Context, m Model[T], src Source, opts ...ParseOpt) (T, error) {
	d, err := parseFrom(ctx, m, src, false, opts)
	return d.Value, err
}

// ParseFromWithMeta is ParseFrom returning presence metadata.
func ParseFromWithMeta[T any](ctx context.Context, m Model[T], src Source, opts ...ParseOpt) (Decoded[T], error) {
	return parseFrom(ctx, m, src, true, opts)
}

// ParseJSON constructs T from JSON bytes.
func ParseJSON[T any](ctx context.Context, m Model[T], data []byte, opts ...ParseOpt) (T, error) {
	return ParseFrom(ctx, m, JSONBytes(data), opts...)
}

// StreamParse constructs T from JSON read from r. When MaxBytes is set the
// size cap is enforced before decoding.
func StreamParse[T any](ctx context.Context, m Model[T], r io.Reader, opts ...ParseOpt) (T, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			var zero T
			return zero, singleIssue(CodeParseError, err.Error())
		}
		if int64(len(data)) > opt.MaxBytes {
			var zero T
			return zero, singleIssue(CodeTruncated, "max bytes exceeded")
		}
		return ParseFrom(ctx, m, JSONBytes(data), opts...)
	}
	return ParseFrom(ctx, m, JSONReader(r), opts...)
}

// ParseYAML constructs T from a YAML document. The node tree is replayed as
// tokens, so every ParseOpt applies as it does for JSON; number literals
// follow opt.Numbers.
func ParseYAML[T any](ctx context.Context, m Model[T], data []byte, opts ...ParseOpt) (T, error) {
	var zero T
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return zero, singleIssue(CodeTruncated, "max bytes exceeded")
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return zero, singleIssue(CodeParseError, err.Error())
	}
	return ParseFrom(ctx, m, yamlnode.New(&node), opts...)
}

func parseFrom[T any](ctx context.Context, m Model[T], src Source, meta bool, opts []ParseOpt) (Decoded[T], error) {
	var zero Decoded[T]
	if m == nil {
		return zero, singleIssue(CodeParseError, "nil model")
	}
	opt := lastOpt(opts)
	log := opt.Log()
	enforced := EnforceSource(src, opt, func(iss Issue) {
		log.Warn("fastser: input issue", "model", m.Name(), "code", iss.Code, "path", iss.Path)
	})
	v, err := eng.Decode(enforced, numberConv(opt.Numbers))
	if err != nil {
		return zero, toIssues(err)
	}
	ctx = withParseOpt(ctx, opt)
	if meta {
		return m.ConstructWithMeta(ctx, v)
	}
	val, err := m.Construct(ctx, v)
	return Decoded[T]{Value: val}, err
}

func withParseOpt(ctx context.Context, opt ParseOpt) context.Context {
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	if opt.Unknown != nil {
		ctx = WithUnknownPolicy(ctx, *opt.Unknown)
	}
	return ctx
}

func lastOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}

func toIssues(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsIssues(err); ok {
		return err
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{{Code: ie.Code, Path: ie.Path, Message: ie.Message, Cause: err}}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return Issues{{Code: CodeParseError, Path: "/", Message: "unexpected end of input", Cause: err}}
	}
	return Issues{{Code: CodeParseError, Path: "/", Message: err.Error(), Cause: err}}
}

func singleIssue(code, msg string) Issues {
	return AppendIssues(nil, Issue{Code: code, Path: "/", Message: msg})
}
