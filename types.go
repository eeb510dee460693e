package fastser

import "log/slog"

// UnknownPolicy controls how unknown keys are handled during construction.
type UnknownPolicy int

const (
	UnknownIgnore      UnknownPolicy = iota // Drop unknown keys silently (default).
	UnknownStrict                           // Reject unknown keys with an error.
	UnknownPassthrough                      // Keep unknown keys in the model's extra field.
)

// NumberMode dictates how JSON numbers are materialized before coercion.
type NumberMode int

const (
	NumberAuto       NumberMode = iota // int64 when integral, float64 otherwise.
	NumberFloat64                      // Fast mode (with potential precision loss).
	NumberJSONNumber                   // Preserve json.Number.
	NumberDecimal                      // decimal.Decimal, no precision loss.
)

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity
}

// ParseOpt bundles parsing options.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	FailFast   bool
	Numbers    NumberMode
	// Unknown overrides the model's unknown-key policy when non-nil.
	Unknown *UnknownPolicy
	// Logger receives duplicate-key warnings; nil means slog.Default().
	Logger *slog.Logger
}

// SerializeMode selects the shape of dumped values.
type SerializeMode int

const (
	// ModePython keeps Go values (time.Time, decimal.Decimal, uuid.UUID, []byte).
	ModePython SerializeMode = iota
	// ModeJSON emits only JSON-compatible values (strings, float64/int64, bool,
	// nil, []any, map[string]any).
	ModeJSON
)

func (m SerializeMode) String() string {
	if m == ModeJSON {
		return "json"
	}
	return "python"
}

// SerializeErrors selects how serialization mismatches are reported.
type SerializeErrors int

const (
	ErrorsWarn   SerializeErrors = iota // log a warning, keep the raw value (default)
	ErrorsError                         // fail with *SerializationError
	ErrorsIgnore                        // keep the raw value silently
)

// SerializeOpt bundles serialization options.
type SerializeOpt struct {
	Mode            SerializeMode
	ByAlias         bool
	ExcludeNone     bool
	ExcludeUnset    bool // needs presence, see Model.DumpDecoded
	ExcludeDefaults bool
	// Include and Exclude select fields by Go name or key. Nested selections
	// use dotted paths ("address.city").
	Include []string
	Exclude []string
	// Errors decides what happens when a value cannot be serialized.
	Errors SerializeErrors
	// Fallback converts values no serializer understands. When nil the value
	// is reported according to Errors.
	Fallback func(v any) (any, error)
	Logger   *slog.Logger
}

// Log returns the logger configured on o, or slog.Default().
func (o SerializeOpt) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Log returns the logger configured on o, or slog.Default().
func (o ParseOpt) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// UnknownPtr returns a pointer to p for use in ParseOpt.Unknown.
func UnknownPtr(p UnknownPolicy) *UnknownPolicy { return &p }
