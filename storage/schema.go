package storage

import (
	"fmt"
	"strings"
)

type FieldType string

const (
	FieldTypeAny     FieldType = "any"
	FieldTypeInt64   FieldType = "int64"
	FieldTypeFloat64 FieldType = "float64"
	FieldTypeString  FieldType = "string"
	FieldTypeBool    FieldType = "bool"
	FieldTypeTime    FieldType = "time"
)

type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

func (s Field) String() string {
	return s.Name + " " + string(s.Type)
}

// TupleSchema is an ordered list of named, typed fields.
type TupleSchema struct {
	Fields []Field `json:"fields"`
}

func NewTupleSchema(fields ...Field) TupleSchema {
	return TupleSchema{
		Fields: fields,
	}
}

func (s TupleSchema) Len() int {
	return len(s.Fields)
}

func (s TupleSchema) Names() []string {
	names := make([]string, len(s.Fields))

	for idx, field := range s.Fields {
		names[idx] = field.Name
	}

	return names
}

// IndexOf returns the offset of the named field or -1.
func (s TupleSchema) IndexOf(name string) int {
	for idx, field := range s.Fields {
		if field.Name == name {
			return idx
		}
	}

	return -1
}

func (s TupleSchema) Equal(other TupleSchema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}

	for idx, field := range s.Fields {
		if field != other.Fields[idx] {
			return false
		}
	}

	return true
}

func (s TupleSchema) String() string {
	formatted := make([]string, len(s.Fields))

	for idx, field := range s.Fields {
		formatted[idx] = field.String()
	}

	return "(" + strings.Join(formatted, ", ") + ")"
}

// Validate checks that field names are present and unique.
func (s TupleSchema) Validate() error {
	seen := make(map[string]struct{}, len(s.Fields))

	for idx, field := range s.Fields {
		if field.Name == "" {
			return fmt.Errorf("field %d has no name", idx)
		}

		if _, duplicate := seen[field.Name]; duplicate {
			return fmt.Errorf("field %s is declared more than once", field.Name)
		}

		seen[field.Name] = struct{}{}
	}

	return nil
}
