package addrspace

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType is the declared type of a node's value.
type ValueType uint8

const (
	TypeFloat ValueType = iota + 1
	TypeInt
	TypeString
	TypeBool
)

// String returns the type name as it appears in configuration files.
func (t ValueType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ParseValueType converts a configuration type name into a ValueType.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "float", "double":
		return TypeFloat, nil
	case "int", "integer":
		return TypeInt, nil
	case "string":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBool, nil
	default:
		return 0, fmt.Errorf("unknown value type %q", s)
	}
}

// IsValid reports whether t is one of the declared value types.
func (t ValueType) IsValid() bool {
	return t >= TypeFloat && t <= TypeBool
}

// InferType classifies a Go value into the narrowest matching ValueType.
// It returns false for values no node type can hold.
func InferType(v any) (ValueType, bool) {
	switch v.(type) {
	case float32, float64:
		return TypeFloat, true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt, true
	case string:
		return TypeString, true
	case bool:
		return TypeBool, true
	default:
		return 0, false
	}
}

// Coerce normalizes v into the canonical Go representation for the
// declared type: float64, int64, string or bool. Integer values are
// accepted for float nodes; everything else must match exactly.
// CBOR and INI round-trips produce uint64/int64/float64, which is why
// numeric widening is handled here rather than at the wire boundary.
func Coerce(t ValueType, v any) (any, error) {
	switch t {
	case TypeFloat:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case TypeInt:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) does not match declared type %s", v, v, t)
}

// ParseValue interprets a configuration string as a value of the declared
// type ("20.5" for float, "42" for int, "true" for bool).
func ParseValue(t ValueType, s string) (any, error) {
	switch t {
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float value %q: %w", s, err)
		}
		return f, nil
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int value %q: %w", s, err)
		}
		return n, nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("bad bool value %q: %w", s, err)
		}
		return b, nil
	case TypeString:
		return s, nil
	default:
		return nil, fmt.Errorf("unknown value type %d", t)
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
