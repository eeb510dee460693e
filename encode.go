package fastser

import (
	"context"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DumpJSON serializes v in JSON mode and encodes it with goccy/go-json.
func DumpJSON[T any](ctx context.Context, m Model[T], v T, opt SerializeOpt) ([]byte, error) {
	opt.Mode = ModeJSON
	out, err := m.Dump(ctx, v, opt)
	if err != nil {
		return nil, err
	}
	return j.Marshal(out)
}

// DumpYAML serializes v in JSON mode and encodes it as a YAML document.
func DumpYAML[T any](ctx context.Context, m Model[T], v T, opt SerializeOpt) ([]byte, error) {
	opt.Mode = ModeJSON
	out, err := m.Dump(ctx, v, opt)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(out)
}
