package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/llm"
	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/scrape"
)

// NoContentPlaceholder is sent to the grader when the fetched page has no
// text, which includes every failed fetch.
const NoContentPlaceholder = "No content found"

const graderPrompt = `You are a highly regarded marketing employee.
You're provided with a webpage containing content a third party submitted to you claiming it's relevant and implements your company's products.
Your task is to carefully read over the entire page, and determine whether or not the content actually implements and is relevant to your company's products.
You're doing this to ensure the content is relevant to your company, and it can be used as marketing material to promote your company.

{business_context}

Given this context, examine the webpage content closely, and determine if the content implements your company's products.
You should provide reasoning as to why or why not the content implements your company's products, then a simple relevant yes or no for whether or not it implements some.
`

var verdictSchema = llm.MustSchema(
	"relevance_verdict",
	"Record whether the submitted content implements the company's products.",
	model.VerdictSchema(),
)

// Classifier fetches the submitted page and asks the grader model whether it
// is relevant to the business.
type Classifier struct {
	fetcher scrape.Fetcher
	invoker llm.Invoker
}

// NewClassifier creates a Classifier.
func NewClassifier(fetcher scrape.Fetcher, invoker llm.Invoker) *Classifier {
	return &Classifier{fetcher: fetcher, invoker: invoker}
}

// GraderPrompt returns the grader system prompt for a business context.
func GraderPrompt(businessContext string) string {
	return strings.ReplaceAll(graderPrompt, "{business_context}", businessContext)
}

// Classify fetches state.URL and grades it with agent.GraderModel. A "yes"
// verdict yields a delta adding the URL and its record; "no" yields a delta
// that only carries token usage. The model is called exactly once.
func (c *Classifier) Classify(ctx context.Context, state *model.PipelineState, agent config.Agent) (model.Delta, *model.RelevanceVerdict, error) {
	log := zap.L().With(zap.String("url", state.URL))

	record := c.fetcher.Fetch(ctx, state.URL)
	if record.Failed() {
		log.Warn("pipeline: fetch failed, grading placeholder", zap.String("fetch_error", record.Error))
	}

	content := record.Text
	if strings.TrimSpace(content) == "" {
		content = NoContentPlaceholder
	}

	msgs := []llm.Message{
		llm.System(GraderPrompt(agent.BusinessContext)),
		llm.User(content),
	}

	verdict, comp, err := llm.InvokeStructured[model.RelevanceVerdict](ctx, c.invoker, agent.GraderModel, msgs, verdictSchema)
	if err != nil {
		return model.Delta{}, nil, eris.Wrap(err, "classify: grade content")
	}

	delta := model.Delta{Usage: comp.Usage}
	log.Info("pipeline: graded content",
		zap.String("relevant", string(verdict.Relevant)),
		zap.String("reasoning", verdict.Reasoning),
	)
	if verdict.IsRelevant() {
		delta.RelevantLinks = []string{state.URL}
		delta.PageContents = []model.ContentRecord{record}
		delta.Links = record.Links
	}
	return delta, &verdict, nil
}
