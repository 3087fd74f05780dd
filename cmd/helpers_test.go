package main

import (
	"context"
	"sync"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/pipeline"
)

// fakeRunner returns canned results keyed by URL.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	overrides []map[string]any
	results   map[string]*model.RunResult
	errs      map[string]error
}

func (f *fakeRunner) Run(_ context.Context, rawURL string, overrides map[string]any) (*model.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	f.overrides = append(f.overrides, overrides)
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	if r, ok := f.results[rawURL]; ok {
		return r, nil
	}
	return notRelevantResult(rawURL), nil
}

func relevantResult(url, report string) *model.RunResult {
	return &model.RunResult{
		State: &model.PipelineState{
			RunID:         "run-" + url,
			URL:           url,
			RelevantLinks: []string{url},
			PageContents:  []model.ContentRecord{{URL: url, Domain: model.DomainOf(url)}},
			Report:        &report,
			Usage:         model.TokenUsage{InputTokens: 10, OutputTokens: 5, Cost: 0.002},
		},
		Verdict: &model.RelevanceVerdict{Relevant: model.RelevanceYes, Reasoning: "Uses the product."},
		Path:    []string{"start", "classify_relevance", "generate_report", "end"},
	}
}

func notRelevantResult(url string) *model.RunResult {
	return &model.RunResult{
		State: &model.PipelineState{
			RunID:         "run-" + url,
			URL:           url,
			RelevantLinks: []string{},
			PageContents:  []model.ContentRecord{},
		},
		Verdict: &model.RelevanceVerdict{Relevant: model.RelevanceNo, Reasoning: "Unrelated."},
		Path:    []string{"start", "classify_relevance", "end"},
	}
}

func stageFailure(stage pipeline.Node, msg string) error {
	return &pipeline.StageError{Stage: stage, Err: errString(msg)}
}

type errString string

func (e errString) Error() string { return string(e) }
