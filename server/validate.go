package server

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

var bagType = reflect.TypeOf(bag.New()).Elem()

// FieldError is one schema violation in a request body
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks raw request bodies against schemas reflected from the
// request structs. Schemas are compiled once per type.
type Validator struct {
	reflector *jsonschema.Reflector

	mu      sync.Mutex
	schemas map[reflect.Type]*gojsonschema.Schema
}

// NewValidator creates a validator
func NewValidator() *Validator {
	return &Validator{
		reflector: &jsonschema.Reflector{
			Anonymous:                 true,
			DoNotReference:            true,
			AllowAdditionalProperties: true,
			Mapper: func(t reflect.Type) *jsonschema.Schema {
				if t == bagType || t == reflect.PointerTo(bagType) {
					return &jsonschema.Schema{Type: "object"}
				}
				return nil
			},
		},
		schemas: make(map[reflect.Type]*gojsonschema.Schema),
	}
}

// Validate checks body against the schema of v's type. It returns the
// violations found, or an error when the schema itself cannot be built or
// body is not JSON.
func (v *Validator) Validate(body []byte, target any) ([]FieldError, error) {
	schema, err := v.schemaFor(target)
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	out := make([]FieldError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		out = append(out, FieldError{Field: fieldOf(e), Message: e.Description()})
	}
	return out, nil
}

func (v *Validator) schemaFor(target any) (*gojsonschema.Schema, error) {
	t := reflect.TypeOf(target)

	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[t]; ok {
		return s, nil
	}

	reflected := v.reflector.Reflect(target)
	// gojsonschema understands up to draft 7; the reflected schema uses no
	// newer keywords once references are inlined.
	reflected.Version = ""
	allowNullOptional(reflected)

	data, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema for %s: %w", t, err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", t, err)
	}
	v.schemas[t] = s
	return s, nil
}

// allowNullOptional lets every property that is not required also be null,
// so clients can send an absent optional field as null. Required properties
// keep their exact type.
func allowNullOptional(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	allowNullOptional(s.Items)
	if s.Properties == nil {
		return
	}
	for p := s.Properties.Oldest(); p != nil; p = p.Next() {
		allowNullOptional(p.Value)
		if slices.Contains(s.Required, p.Key) {
			continue
		}
		p.Value = &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{p.Value, {Type: "null"}},
		}
	}
}

// fieldOf returns the dotted path of the offending property. Required
// errors are reported against the parent object, so the missing property
// name is appended.
func fieldOf(e gojsonschema.ResultError) string {
	field := e.Field()
	if prop, ok := e.Details()["property"].(string); ok && e.Type() == "required" {
		if field == "(root)" || field == "" {
			return prop
		}
		return field + "." + prop
	}
	return field
}

// touches reports whether any violation concerns field or one of its children
func touches(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field || strings.HasPrefix(e.Field, field+".") {
			return true
		}
	}
	return false
}
