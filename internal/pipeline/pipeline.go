// Package pipeline grades submitted content for relevance and, when it is
// relevant, writes a marketing report on it.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/llm"
	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/resilience"
	"github.com/sells-group/contentgrade/internal/scrape"
)

// Node identifies a step of a run.
type Node string

const (
	NodeStart             Node = "start"
	NodeClassifyRelevance Node = "classify_relevance"
	NodeGenerateReport    Node = "generate_report"
	NodeEnd               Node = "end"
)

// Next returns the node that follows node given the current state. The only
// branch is after classification: a report is generated iff at least one
// relevant link was recorded.
func Next(node Node, state *model.PipelineState) Node {
	switch node {
	case NodeStart:
		return NodeClassifyRelevance
	case NodeClassifyRelevance:
		if state != nil && len(state.RelevantLinks) > 0 {
			return NodeGenerateReport
		}
		return NodeEnd
	default:
		return NodeEnd
	}
}

// StageError reports which node aborted a run.
type StageError struct {
	Stage Node
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline runs the classify/report state machine for one URL at a time.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	classifier *Classifier
	reporter   *ReportGenerator
	defaults   config.Agent
}

// New creates a Pipeline. defaults supplies the run configuration that
// per-run overrides are merged onto.
func New(fetcher scrape.Fetcher, invoker llm.Invoker, defaults config.Agent) *Pipeline {
	return &Pipeline{
		classifier: NewClassifier(fetcher, invoker),
		reporter:   NewReportGenerator(invoker),
		defaults:   defaults,
	}
}

// Run processes rawURL end to end. Input errors are returned before any node
// runs. A node failure is returned as a *StageError together with the
// partial result, which never carries a report.
func (p *Pipeline) Run(ctx context.Context, rawURL string, overrides map[string]any) (*model.RunResult, error) {
	state, err := model.NewPipelineState(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: validate input")
	}
	agent, err := config.ResolveAgent(p.defaults, overrides)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: resolve config")
	}

	log := zap.L().With(zap.String("run_id", state.RunID), zap.String("url", state.URL))
	log.Info("pipeline: starting run",
		zap.String("grader_model", agent.GraderModel),
		zap.String("report_model", agent.ReportModel),
	)

	start := time.Now()
	result := &model.RunResult{
		State: state,
		Path:  []string{string(NodeStart)},
	}

	for node := Next(NodeStart, state); ; node = Next(node, state) {
		result.Path = append(result.Path, string(node))
		if node == NodeEnd {
			break
		}

		stageStart := time.Now()
		delta, stageErr := p.execute(ctx, node, state, agent, result)
		elapsed := time.Since(stageStart).Milliseconds()

		stage := model.StageResult{
			Name:       string(node),
			Status:     model.StageStatusComplete,
			Duration:   elapsed,
			TokenUsage: delta.Usage,
		}
		if stageErr != nil {
			stage.Status = model.StageStatusFailed
			stage.Error = stageErr.Error()
			result.Stages = append(result.Stages, stage)
			result.Duration = time.Since(start).Milliseconds()
			log.Error("pipeline: stage failed",
				zap.String("stage", string(node)),
				zap.String("class", resilience.Classify(stageErr)),
				zap.Int64("duration_ms", elapsed),
				zap.Error(stageErr),
			)
			return result, &StageError{Stage: node, Err: stageErr}
		}

		state.Apply(delta)
		result.Stages = append(result.Stages, stage)
		log.Info("pipeline: stage complete",
			zap.String("stage", string(node)),
			zap.Int64("duration_ms", elapsed),
			zap.Int("tokens", delta.Usage.Total()),
			zap.Float64("cost_usd", delta.Usage.Cost),
		)
	}

	result.Duration = time.Since(start).Milliseconds()
	log.Info("pipeline: run complete",
		zap.Bool("relevant", result.Relevant()),
		zap.Bool("report", state.HasReport()),
		zap.Int64("duration_ms", result.Duration),
		zap.Float64("cost_usd", state.Usage.Cost),
	)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, node Node, state *model.PipelineState, agent config.Agent, result *model.RunResult) (model.Delta, error) {
	switch node {
	case NodeClassifyRelevance:
		delta, verdict, err := p.classifier.Classify(ctx, state, agent)
		if err != nil {
			return delta, err
		}
		result.Verdict = verdict
		return delta, nil
	case NodeGenerateReport:
		return p.reporter.Generate(ctx, state, agent)
	default:
		return model.Delta{}, eris.Errorf("pipeline: no handler for node %q", node)
	}
}
