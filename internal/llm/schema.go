package llm

import (
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rotisserie/eris"
)

// Schema is a named JSON Schema for structured output.
type Schema struct {
	Name        string
	Description string

	def      *jsonschema.Schema
	resolved *jsonschema.Resolved
	raw      json.RawMessage
}

// NewSchema resolves def so responses can be validated against it.
func NewSchema(name, description string, def *jsonschema.Schema) (*Schema, error) {
	if name == "" {
		return nil, eris.New("llm: schema name is required")
	}
	if def == nil {
		return nil, eris.Errorf("llm: schema %s has no definition", name)
	}
	resolved, err := def.Resolve(nil)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: resolve schema %s", name)
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: marshal schema %s", name)
	}
	return &Schema{
		Name:        name,
		Description: description,
		def:         def,
		resolved:    resolved,
		raw:         raw,
	}, nil
}

// MustSchema is NewSchema for package-level definitions; it panics on error.
func MustSchema(name, description string, def *jsonschema.Schema) *Schema {
	s, err := NewSchema(name, description, def)
	if err != nil {
		panic(err)
	}
	return s
}

// JSON returns the schema document.
func (s *Schema) JSON() json.RawMessage {
	return s.raw
}

// Validate checks that raw is a JSON value conforming to the schema.
func (s *Schema) Validate(raw json.RawMessage) error {
	if len(raw) == 0 {
		return eris.Wrapf(ErrSchemaViolation, "%s: empty response", s.Name)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return eris.Wrapf(ErrSchemaViolation, "%s: invalid json: %v", s.Name, err)
	}
	if err := s.resolved.Validate(instance); err != nil {
		return eris.Wrapf(ErrSchemaViolation, "%s: %v", s.Name, err)
	}
	return nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response that should contain a single JSON object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
