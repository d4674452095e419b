package graph

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
)

var ErrPropertyNotFound = errors.New("property not found")

func typeError(want string, value any) error {
	return fmt.Errorf("property value of type %T is not negotiable to %s", value, want)
}

type safePropertyValue struct {
	value any
}

// NewPropertyValue wraps a raw value in the PropertyValue negotiation contract.
func NewPropertyValue(value any) PropertyValue {
	return safePropertyValue{
		value: value,
	}
}

func (s safePropertyValue) IsNil() bool {
	return s.value == nil
}

func (s safePropertyValue) Bool() (bool, error) {
	switch typed := s.value.(type) {
	case nil:
		return false, ErrPropertyNotFound
	case bool:
		return typed, nil
	default:
		return false, typeError("bool", s.value)
	}
}

func (s safePropertyValue) Int64() (int64, error) {
	switch typed := s.value.(type) {
	case nil:
		return 0, ErrPropertyNotFound
	case int:
		return int64(typed), nil
	case int8:
		return int64(typed), nil
	case int16:
		return int64(typed), nil
	case int32:
		return int64(typed), nil
	case int64:
		return typed, nil
	case uint8:
		return int64(typed), nil
	case uint16:
		return int64(typed), nil
	case uint32:
		return int64(typed), nil
	case uint64:
		if typed > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 property value %d overflows int64", typed)
		}

		return int64(typed), nil
	case ID:
		return typed.Int64(), nil
	case float64:
		// JSON decoded numbers arrive as float64
		if typed != math.Trunc(typed) {
			return 0, typeError("int64", s.value)
		}

		return int64(typed), nil
	case string:
		return strconv.ParseInt(typed, 10, 64)
	default:
		return 0, typeError("int64", s.value)
	}
}

func (s safePropertyValue) Float64() (float64, error) {
	switch typed := s.value.(type) {
	case nil:
		return 0, ErrPropertyNotFound
	case float32:
		return float64(typed), nil
	case float64:
		return typed, nil
	default:
		if intValue, err := s.Int64(); err != nil {
			return 0, typeError("float64", s.value)
		} else {
			return float64(intValue), nil
		}
	}
}

func (s safePropertyValue) String() (string, error) {
	switch typed := s.value.(type) {
	case nil:
		return "", ErrPropertyNotFound
	case string:
		return typed, nil
	case fmt.Stringer:
		return typed.String(), nil
	default:
		return "", typeError("string", s.value)
	}
}

func (s safePropertyValue) Any() any {
	return s.value
}

// Properties is a simple property bag. A nil *Properties behaves as an empty bag for reads.
type Properties struct {
	Map map[string]any
}

func NewProperties() *Properties {
	return &Properties{}
}

func NewPropertiesFrom(values map[string]any) *Properties {
	return &Properties{
		Map: maps.Clone(values),
	}
}

func (s *Properties) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Map)
}

func (s *Properties) Exists(key string) bool {
	if s == nil {
		return false
	}

	_, exists := s.Map[key]
	return exists
}

func (s *Properties) Get(key string) PropertyValue {
	if s == nil {
		return NewPropertyValue(nil)
	}

	return NewPropertyValue(s.Map[key])
}

func (s *Properties) Set(key string, value any) *Properties {
	if s.Map == nil {
		s.Map = make(map[string]any)
	}

	s.Map[key] = value
	return s
}

func (s *Properties) SetAll(other map[string]any) *Properties {
	for key, value := range other {
		s.Set(key, value)
	}

	return s
}

func (s *Properties) Delete(key string) *Properties {
	if s != nil {
		delete(s.Map, key)
	}

	return s
}

// Keys returns the property keys in sorted order.
func (s *Properties) Keys() []string {
	if s == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(s.Map))
}
