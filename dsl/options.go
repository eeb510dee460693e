package dsl

import (
	"log/slog"
	"sort"

	fastser "github.com/reoring/fastser"
)

// modelConfig is the class-level configuration of a model.
type modelConfig struct {
	title          string
	description    string
	datetimeLayout string
	dateLayout     string
	unknown        *fastser.UnknownPolicy
	required       *bool
	logger         *slog.Logger

	validators  map[string]fastser.Validator
	serializers map[string]fastser.Serializer
	defaults    map[string]any
	factories   map[string]func() any
}

// custom reports whether the config differs from the one shared by nested
// models (which are compiled once per type).
func (c *modelConfig) custom() bool {
	return c.title != "" || c.description != "" || c.datetimeLayout != "" || c.dateLayout != "" ||
		c.unknown != nil || c.required != nil || c.logger != nil ||
		len(c.validators) > 0 || len(c.serializers) > 0 || len(c.defaults) > 0 || len(c.factories) > 0
}

// optionFields lists the field names the per-field options refer to.
func (c *modelConfig) optionFields() []string {
	var out []string
	for k := range c.validators {
		out = append(out, k)
	}
	for k := range c.serializers {
		out = append(out, k)
	}
	for k := range c.defaults {
		out = append(out, k)
	}
	for k := range c.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *modelConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// ModelOption configures ModelOf.
type ModelOption func(*modelConfig)

// Title overrides the model name used in errors and JSON Schema.
func Title(s string) ModelOption { return func(c *modelConfig) { c.title = s } }

// Description sets the JSON Schema description of the model.
func Description(s string) ModelOption { return func(c *modelConfig) { c.description = s } }

// DatetimeFormat sets the Go layout used to parse and to emit (JSON mode)
// time.Time fields.
func DatetimeFormat(layout string) ModelOption {
	return func(c *modelConfig) { c.datetimeLayout = layout }
}

// DateFormat is DatetimeFormat for fields tagged format=date.
func DateFormat(layout string) ModelOption { return func(c *modelConfig) { c.dateLayout = layout } }

// Unknown sets the model's unknown-key policy.
func Unknown(p fastser.UnknownPolicy) ModelOption {
	return func(c *modelConfig) { c.unknown = &p }
}

// DefaultRequired decides whether untagged non-pointer fields without a
// default are required, overriding fastser.DefaultRequired.
func DefaultRequired(required bool) ModelOption {
	return func(c *modelConfig) { c.required = &required }
}

// WithLogger sets the logger for deprecation and serialization warnings.
func WithLogger(l *slog.Logger) ModelOption { return func(c *modelConfig) { c.logger = l } }

// WithValidator replaces the derived validator of a field (Go name or key).
func WithValidator(field string, v fastser.Validator) ModelOption {
	return func(c *modelConfig) {
		if c.validators == nil {
			c.validators = map[string]fastser.Validator{}
		}
		c.validators[field] = v
	}
}

// WithSerializer replaces the serializer of a field (Go name or key).
func WithSerializer(field string, s fastser.Serializer) ModelOption {
	return func(c *modelConfig) {
		if c.serializers == nil {
			c.serializers = map[string]fastser.Serializer{}
		}
		c.serializers[field] = s
	}
}

// WithDefault sets a field's default. Slices and maps need WithDefaultFactory.
func WithDefault(field string, v any) ModelOption {
	return func(c *modelConfig) {
		if c.defaults == nil {
			c.defaults = map[string]any{}
		}
		c.defaults[field] = v
	}
}

// WithDefaultFactory sets a function producing a fresh default per instance.
func WithDefaultFactory(field string, fn func() any) ModelOption {
	return func(c *modelConfig) {
		if c.factories == nil {
			c.factories = map[string]func() any{}
		}
		c.factories[field] = fn
	}
}
