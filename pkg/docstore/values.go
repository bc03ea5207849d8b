package docstore

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidateField checks that name is a plain top-level field name.
func ValidateField(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

// String reads a string field. A missing or null field reads as "".
func (d Document) String(key string) (string, error) {
	value, ok := d[key]
	if !ok || value == nil {
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrFieldType, key, value)
	}
	return str, nil
}

// Number reads any numeric field as an int64, truncating fractions.
// The boolean is false when the field is missing or not a number.
func (d Document) Number(key string) (int64, bool) {
	switch value := d[key].(type) {
	case int:
		return int64(value), true
	case int32:
		return int64(value), true
	case int64:
		return value, true
	case uint32:
		return int64(value), true
	case float32:
		return int64(value), true
	case float64:
		return int64(value), true
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n, true
		}
		if f, err := value.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// Integer reads an integer field strictly: the stored value must be an
// integer type that fits in an int.
func (d Document) Integer(key string) (int, error) {
	value, ok := d[key]
	if !ok || value == nil {
		return 0, fmt.Errorf("%w: %s is missing", ErrFieldType, key)
	}

	var n int64
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		n = int64(v)
	case int64:
		n = v
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is %q, want integer", ErrFieldType, key, v.String())
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: %s is %T, want integer", ErrFieldType, key, value)
	}

	if n < math.MinInt || n > math.MaxInt {
		return 0, fmt.Errorf("%w: %s overflows int", ErrFieldType, key)
	}
	return int(n), nil
}
