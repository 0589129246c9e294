// Package payload validates and decodes the JSON documents exchanged with the executor.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidPayload wraps every schema or decoding failure.
var ErrInvalidPayload = errors.New("invalid payload")

// Schema validates documents against a schema reflected from a Go type.
type Schema struct {
	schema *gojsonschema.Schema
}

// NewSchema reflects v. Fields tagged `jsonschema:"required"` are required and unknown
// properties are accepted so the executor can add fields without breaking the portal.
func NewSchema(v interface{}) *Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	data, err := reflector.Reflect(v).MarshalJSON()
	if err != nil {
		panic(fmt.Sprintf("payload: reflect schema for %T: %v", v, err))
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("payload: compile schema for %T: %v", v, err))
	}
	return &Schema{schema: schema}
}

// Validate checks data against the schema.
func (s *Schema) Validate(data []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(reasons, "; "))
	}
	return nil
}

// Decode validates data and unmarshals it into out.
func (s *Schema) Decode(data []byte, out interface{}) error {
	if err := s.Validate(data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// IsJSONObject reports whether data is a single JSON object.
func IsJSONObject(data []byte) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(data, &obj) == nil && obj != nil
}
