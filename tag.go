package fastser

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldTag is the parsed form of a struct field's tags.
//
//	Name string `fast:"name=user_name,alias=userName,required,min_len=1,max_len=32"`
//
// Keys of the fast tag: name, alias, serialize_alias, required, optional,
// default, min, max, min_len, max_len, oneof (values separated by '|'),
// format, exclude, deprecated, extra, "-". The description, pattern, check
// and validate tags carry free text that may contain commas.
type FieldTag struct {
	Key                string
	Alias              string
	SerializationAlias string
	Skip               bool
	// Required is nil when the tag does not decide.
	Required    *bool
	Default     string
	HasDefault  bool
	Min, Max    *float64
	MinLen      *int
	MaxLen      *int
	Pattern     string
	OneOf       []string
	Format      string
	Exclude     bool
	Deprecated  bool
	Extra       bool
	Description string
	Check       string
	Rule        string
}

// ParseFieldTag resolves a struct field's tags.
// Key priority: fast:"name=..." > json tag name > field name.
func ParseFieldTag(sf reflect.StructField) (FieldTag, error) {
	ft := FieldTag{
		Key:         jsonKey(sf),
		Pattern:     sf.Tag.Get("pattern"),
		Description: sf.Tag.Get("description"),
		Check:       sf.Tag.Get("check"),
		Rule:        sf.Tag.Get("validate"),
	}
	if ft.Key == "-" {
		ft.Skip = true
	}
	raw, ok := sf.Tag.Lookup("fast")
	if !ok {
		return ft, nil
	}
	if raw == "-" {
		ft.Skip = true
		return ft, nil
	}
	var errs []error
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, hasValue := strings.Cut(part, "=")
		if err := ft.set(k, v, hasValue); err != nil {
			errs = append(errs, fmt.Errorf("tag %q: %w", part, err))
		}
	}
	if ft.Min != nil && ft.Max != nil && *ft.Min > *ft.Max {
		errs = append(errs, errors.New("min greater than max"))
	}
	if ft.MinLen != nil && ft.MaxLen != nil && *ft.MinLen > *ft.MaxLen {
		errs = append(errs, errors.New("min_len greater than max_len"))
	}
	return ft, errors.Join(errs...)
}

func (ft *FieldTag) set(k, v string, hasValue bool) error {
	flag := func(dst *bool) error {
		if hasValue {
			return errors.New("takes no value")
		}
		*dst = true
		return nil
	}
	switch k {
	case "name":
		ft.Key = v
	case "alias":
		ft.Alias = v
	case "serialize_alias":
		ft.SerializationAlias = v
	case "required", "optional":
		if hasValue {
			return errors.New("takes no value")
		}
		b := k == "required"
		ft.Required = &b
	case "default":
		ft.Default, ft.HasDefault = v, true
	case "min", "max":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		if k == "min" {
			ft.Min = &f
		} else {
			ft.Max = &f
		}
	case "min_len", "max_len":
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if n < 0 {
			return errors.New("negative length")
		}
		if k == "min_len" {
			ft.MinLen = &n
		} else {
			ft.MaxLen = &n
		}
	case "oneof":
		ft.OneOf = strings.Split(v, "|")
	case "format":
		switch v {
		case "date", "datetime", "time", "duration":
			ft.Format = v
		default:
			return fmt.Errorf("unknown format %q", v)
		}
	case "exclude":
		return flag(&ft.Exclude)
	case "deprecated":
		return flag(&ft.Deprecated)
	case "extra":
		return flag(&ft.Extra)
	default:
		return errors.New("unknown key")
	}
	return nil
}

// OutputKey returns the key used when serializing. With byAlias the
// serialization alias wins, then the input alias.
func (ft FieldTag) OutputKey(byAlias bool) string {
	switch {
	case byAlias && ft.SerializationAlias != "":
		return ft.SerializationAlias
	case byAlias && ft.Alias != "":
		return ft.Alias
	}
	return ft.Key
}

func jsonKey(sf reflect.StructField) string {
	jt := sf.Tag.Get("json")
	if jt == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(jt, ",")
	if name == "" {
		return sf.Name
	}
	return name
}
