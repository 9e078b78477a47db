package util

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError reports a single parameter that failed schema validation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema derives a JSON schema from a Go struct via reflection. Fields
// use their json tag name; a "description" tag becomes the schema
// description; an "enum" tag lists allowed values comma separated. Fields
// without omitempty and non-pointer types are required.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := map[string]any{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, prop, mandatory := fieldSchema(f)
		if name == "" {
			continue
		}
		properties[name] = prop
		if mandatory {
			required = append(required, name)
		}
	}

	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// fieldSchema builds the property schema for one struct field. An empty name
// means the field is skipped (unexported or json:"-").
func fieldSchema(f reflect.StructField) (string, map[string]any, bool) {
	if !f.IsExported() {
		return "", nil, false
	}
	jsonTag := f.Tag.Get("json")
	if jsonTag == "-" {
		return "", nil, false
	}

	name := f.Name
	tagName, tagOpts, _ := strings.Cut(jsonTag, ",")
	if tagName != "" {
		name = tagName
	}

	prop := map[string]any{"type": jsonType(f.Type)}
	if desc := f.Tag.Get("description"); desc != "" {
		prop["description"] = desc
	}
	if enum := f.Tag.Get("enum"); enum != "" {
		raw := strings.Split(enum, ",")
		vals := make([]any, len(raw))
		for i, v := range raw {
			vals[i] = strings.TrimSpace(v)
		}
		prop["enum"] = vals
	}

	optional := f.Type.Kind() == reflect.Pointer
	for _, opt := range strings.Split(tagOpts, ",") {
		if strings.TrimSpace(opt) == "omitempty" {
			optional = true
		}
	}
	return name, prop, !optional
}

// ValidateParameters validates params against a JSON schema: required fields
// must be present, and present fields must match their declared type and
// enum. Extra fields not covered by the schema pass through.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, fieldName := range requiredFields(schema) {
		if _, exists := params[fieldName]; !exists {
			return &ValidationError{Field: fieldName, Message: "required field is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for fieldName, value := range params {
		prop, ok := properties[fieldName].(map[string]any)
		if !ok {
			continue
		}
		if err := checkValue(fieldName, value, prop); err != nil {
			return err
		}
	}
	return nil
}

// checkValue validates one present parameter against its property schema.
func checkValue(fieldName string, value any, prop map[string]any) error {
	expectedType, _ := prop["type"].(string)
	if !matchesType(value, expectedType) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("expected type %s, got %T", expectedType, value),
		}
	}
	if enum, ok := prop["enum"].([]any); ok {
		for _, allowed := range enum {
			if fmt.Sprintf("%v", allowed) == fmt.Sprintf("%v", value) {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "value is not one of the allowed enum values",
		}
	}
	return nil
}

// requiredFields tolerates both []any (from JSON decoding) and []string
// (from CreateSchema).
func requiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Pointer:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

// matchesType checks a runtime value against a JSON schema type name. JSON
// decoding yields float64 for all numbers, so integer accepts whole floats.
func matchesType(value any, expectedType string) bool {
	if value == nil {
		return true
	}
	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
