package campaign

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const briefSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "product": {"type": "string", "minLength": 1},
    "client": {"type": "string", "minLength": 1},
    "target_audience": {"type": "string", "minLength": 1},
    "goals": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "key_features": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "budget": {"type": "string", "minLength": 1},
    "timeline": {"type": "string", "minLength": 1},
    "color_scheme": {"type": "string", "minLength": 1},
    "website": {"type": "string"},
    "logo": {"type": "string"},
    "additional_requirements": {"type": "string"}
  },
  "required": ["product", "client", "target_audience", "goals", "key_features", "budget", "timeline", "color_scheme"]
}`

var briefSchema = jsonschema.MustCompileString("brief.json", briefSchemaJSON)

// ParseBrief decodes and validates a brief from its JSON wire form.
// Schema violations and missing required fields surface as *ValidationError.
func ParseBrief(data []byte) (Brief, error) {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return Brief{}, fmt.Errorf("decode brief: %w", err)
	}
	if err := briefSchema.Validate(generic); err != nil {
		return Brief{}, &ValidationError{Reason: err.Error()}
	}
	var brief Brief
	if err := json.Unmarshal(data, &brief); err != nil {
		return Brief{}, fmt.Errorf("decode brief: %w", err)
	}
	if err := brief.Validate(); err != nil {
		return Brief{}, err
	}
	return brief, nil
}
