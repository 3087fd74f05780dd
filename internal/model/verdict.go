package model

import "github.com/google/jsonschema-go/jsonschema"

// Relevance is the enumerated relevance judgment.
type Relevance string

const (
	RelevanceYes Relevance = "yes"
	RelevanceNo  Relevance = "no"
)

// Valid reports whether r is one of the declared literals.
func (r Relevance) Valid() bool {
	return r == RelevanceYes || r == RelevanceNo
}

// RelevanceVerdict is the structured response of the grader model.
type RelevanceVerdict struct {
	Relevant  Relevance `json:"relevant" yaml:"relevant"`
	Reasoning string    `json:"reasoning" yaml:"reasoning"`
}

// IsRelevant reports whether the verdict is "yes".
func (v RelevanceVerdict) IsRelevant() bool {
	return v.Relevant == RelevanceYes
}

// VerdictSchema returns the JSON Schema a RelevanceVerdict must satisfy.
// Both fields are required and no other properties are allowed.
func VerdictSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"relevant": {
				Type:        "string",
				Enum:        []any{string(RelevanceYes), string(RelevanceNo)},
				Description: "Whether the content is relevant to the business's products.",
			},
			"reasoning": {
				Type:        "string",
				Description: "One or two sentences explaining the decision.",
			},
		},
		Required:             []string{"relevant", "reasoning"},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}
