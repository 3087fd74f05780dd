package llm

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contentgrade/internal/model"
)

// fakeInvoker records calls and replays scripted results.
type fakeInvoker struct {
	mu      sync.Mutex
	calls   []string
	results []fakeResult
}

type fakeResult struct {
	comp *Completion
	err  error
}

func (f *fakeInvoker) next(name string) (*Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if len(f.results) == 0 {
		return &Completion{Text: "ok"}, nil
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	if r.comp != nil {
		c := *r.comp
		return &c, r.err
	}
	return nil, r.err
}

func (f *fakeInvoker) Invoke(_ context.Context, name string, _ []Message) (*Completion, error) {
	return f.next(name)
}

func (f *fakeInvoker) InvokeStructured(_ context.Context, name string, _ []Message, _ *Schema) (*Completion, error) {
	return f.next(name)
}

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("record_grade", "Record the grade.", &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"grade":  {Type: "string", Enum: []any{"pass", "fail"}},
			"reason": {Type: "string"},
		},
		Required: []string{"grade"},
	})
	require.NoError(t, err)
	return s
}

type grade struct {
	Grade  string `json:"grade"`
	Reason string `json:"reason"`
}

func TestInvokeStructured_Decodes(t *testing.T) {
	inv := &fakeInvoker{results: []fakeResult{{comp: &Completion{
		JSON:  json.RawMessage(`{"grade":"pass","reason":"fine"}`),
		Usage: model.TokenUsage{InputTokens: 12, OutputTokens: 3},
	}}}}

	got, comp, err := InvokeStructured[grade](context.Background(), inv, "anthropic/m", []Message{User("x")}, testSchema(t))
	require.NoError(t, err)
	assert.Equal(t, grade{Grade: "pass", Reason: "fine"}, got)
	assert.Equal(t, 12, comp.Usage.InputTokens)
	assert.Equal(t, []string{"anthropic/m"}, inv.calls)
}

func TestInvokeStructured_RejectsViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"enum", `{"grade":"maybe"}`},
		{"missing required", `{"reason":"no grade"}`},
		{"wrong type", `{"grade":7}`},
		{"not json", `grade: pass`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{results: []fakeResult{{comp: &Completion{JSON: json.RawMessage(tt.raw)}}}}
			_, _, err := InvokeStructured[grade](context.Background(), inv, "anthropic/m", nil, testSchema(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaViolation)
		})
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]Message{System("a"), User("b"), System("c"), {Role: RoleAssistant, Content: "d"}})
	assert.Equal(t, []string{"a", "c"}, system)
	assert.Equal(t, []Message{User("b"), {Role: RoleAssistant, Content: "d"}}, rest)
}
