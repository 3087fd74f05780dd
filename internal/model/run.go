package model

// StageStatus is the outcome of a single pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
)

// StageResult holds the outcome of one executed node.
type StageResult struct {
	Name       string      `json:"name" yaml:"name"`
	Status     StageStatus `json:"status" yaml:"status"`
	Duration   int64       `json:"duration_ms" yaml:"duration_ms"`
	TokenUsage TokenUsage  `json:"token_usage" yaml:"token_usage"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunResult is the final output of a pipeline run.
type RunResult struct {
	State    *PipelineState    `json:"state" yaml:"state"`
	Verdict  *RelevanceVerdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Path     []string          `json:"path" yaml:"path"`
	Stages   []StageResult     `json:"stages" yaml:"stages"`
	Duration int64             `json:"duration_ms" yaml:"duration_ms"`
}

// Relevant reports whether the run ended with at least one relevant page.
func (r *RunResult) Relevant() bool {
	return r != nil && r.State != nil && len(r.State.RelevantLinks) > 0
}
