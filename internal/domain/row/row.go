// Package row defines the positional tuple contract between the row source and the document builder.
package row

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNull signals a null value where a typed value is mandatory.
	ErrNull = errors.New("null value")
	// ErrOutOfRange signals a column index beyond the row arity.
	ErrOutOfRange = errors.New("column out of range")
)

// Row is one ordered tuple returned by the row source.
// Sources normalize driver values to nil, int64, float64, string, bool or time.Time.
type Row []any

// Get returns the value at column i.
func (r Row) Get(i int) (any, error) {
	if i < 0 || i >= len(r) {
		return nil, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(r))
	}
	return r[i], nil
}

// Key renders column i as a grouping key. ok is false for null or empty values.
func (r Row) Key(i int) (string, bool) {
	v, err := r.Get(i)
	if err != nil || v == nil {
		return "", false
	}
	s, err := AsString(v)
	if err != nil {
		return "", false
	}
	str, _ := s.(string)
	if str == "" {
		return "", false
	}
	return str, true
}

// Normalize converts a driver value into the Row value domain.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return strconv.FormatUint(x, 10)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// AsRaw passes the value through unchanged.
func AsRaw(v any) (any, error) { return v, nil }

// AsString renders non-null values as text and passes null through.
func AsString(v any) (any, error) {
	switch x := Normalize(v).(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// AsFloat casts to float64. Null and unparseable values fail.
func AsFloat(v any) (any, error) {
	switch x := Normalize(v).(type) {
	case nil:
		return nil, ErrNull
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to float: %w", x, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to float", v)
	}
}

// AsInt casts to int64. Null, fractional and unparseable values fail.
func AsInt(v any) (any, error) {
	switch x := Normalize(v).(type) {
	case nil:
		return nil, ErrNull
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("cannot cast %v to integer", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot cast %q to integer: %w", x, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to integer", v)
	}
}

// AsNullableInt is AsInt with null passed through.
func AsNullableInt(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return AsInt(v)
}
