package llm

import (
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema_Errors(t *testing.T) {
	_, err := NewSchema("", "", &jsonschema.Schema{Type: "object"})
	assert.Error(t, err)

	_, err = NewSchema("x", "", nil)
	assert.Error(t, err)
}

func TestSchema_JSON(t *testing.T) {
	s := testSchema(t)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(s.JSON(), &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []any{"grade"}, doc["required"])
	assert.Equal(t, "record_grade", s.Name)
}

func TestSchema_Validate(t *testing.T) {
	s := testSchema(t)
	assert.NoError(t, s.Validate(json.RawMessage(`{"grade":"fail"}`)))
	assert.ErrorIs(t, s.Validate(json.RawMessage(`{"grade":"FAIL"}`)), ErrSchemaViolation)
}

func TestMustSchema_Panics(t *testing.T) {
	assert.Panics(t, func() { MustSchema("", "", nil) })
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"no object", "nothing", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
