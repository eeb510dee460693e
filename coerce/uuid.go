package coerce

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UUID coerces uuid.UUID values, 16-byte arrays and UUID text (any form
// uuid.Parse accepts). A non-zero version must match.
func UUID(v any, version int) (uuid.UUID, error) {
	var u uuid.UUID
	switch x := v.(type) {
	case uuid.UUID:
		u = x
	case *uuid.UUID:
		if x == nil {
			return uuid.Nil, fail(CodeUUIDParsing, "uuid", v, nil)
		}
		u = *x
	case [16]byte:
		u = uuid.UUID(x)
	default:
		s, ok, err := nonEmptyString(v)
		if !ok || err != nil {
			return uuid.Nil, fail(CodeUUIDParsing, "uuid", v, err)
		}
		parsed, perr := uuid.Parse(strings.TrimSpace(s))
		if perr != nil {
			return uuid.Nil, fail(CodeUUIDParsing, "uuid", v, perr)
		}
		u = parsed
	}
	if version > 0 && int(u.Version()) != version {
		return uuid.Nil, &Error{
			Code:     CodeUUIDVersion,
			Expected: strconv.Itoa(version),
			Value:    v,
		}
	}
	return u, nil
}
