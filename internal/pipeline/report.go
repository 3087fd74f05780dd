package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/llm"
	"github.com/sells-group/contentgrade/internal/model"
)

// ErrNoContent is returned when a report is requested for a state without
// any relevant page contents.
var ErrNoContent = eris.New("report: no page contents")

const structureGuidelines = `<part key="1">
This is the introduction and summary of the content. This must include key details such as:
- the name of the content/product/service.
- what the content/product/service does, and/or the problems it solves.
- unique selling points or interesting facts about the content.
- a high level summary of the content/product/service.
</part>

<part key="2">
This section should focus on how the content implements any of the business context outlined above. It should include:
- the product(s) or service(s) used in the content.
- how these products are used in the content.
- why these products are important to the application.
</part>

<part key="3">
This section should cover any additional details about the content that the first two parts missed. It should include:
- a detailed technical overview of the content.
- interesting facts about the content.
- any other relevant information that may be engaging to readers.
</part>`

const reportRules = `- Focus on the subject of the content, and how it uses or relates to the business context outlined above.
- The final Tweet/LinkedIn post will be developer focused, so ensure the report is VERY technical and detailed.
- You should include ALL relevant details in the report, because doing this will help the final post be more informed, relevant and engaging.
- Include any relevant links found in the content in the report. These will be useful for readers to learn more about the content.
- Include details about what the product does, what problem it solves, and how it works. If the content is not about a product, you should focus on what the content is about instead of making it product focused.
- Use proper markdown styling when formatting the marketing report.
- Generate the report in {language}, even if the content submitted is not in {language}.`

const reportPrompt = `You are a highly regarded marketing employee.
You have been tasked with writing a marketing report on content submitted to you from a third party which uses your products.
This marketing report will then be used to craft Tweets and LinkedIn posts promoting the content and your products.

{business_context}

The marketing report should follow the following structure guidelines. It will be made up of three main sections outlined below:
<structure-guidelines>
` + structureGuidelines + `
</structure-guidelines>

Follow these rules and guidelines when generating the report:
<rules>
` + reportRules + `
</rules>

Lastly, you should use the following process when writing the report:
<writing-process>
- First, read over the content VERY thoroughly.
- Take notes, and write down your thoughts about the content after reading it carefully. These should be interesting insights or facts which you think you'll need later on when writing the final report. This should be the first text you write. ALWAYS perform this step first, and wrap the notes and thoughts inside opening and closing "<thinking>" tags.
- Finally, write the report. Use the notes and thoughts you wrote down in the previous step to help you write the report. This should be the last text you write. Wrap your report inside "<report>" tags. Ensure you ALWAYS WRAP your report inside the "<report>" tags, with an opening and closing tag.
</writing-process>

Do not include any personal opinions or biases in the report. Stick to the facts and technical details.
Your response should ONLY include the marketing report, and no other text.
Remember, the more detailed and engaging the report, the better!!
Finally, remember to have fun!

Given these instructions, examine the users input closely, and generate a detailed and thoughtful marketing report on it.`

const reportLeadIn = "The following text contains summaries, or entire pages from the content I submitted to you. " +
	"Please review the content and generate a report on it.\n"

var reportTag = regexp.MustCompile(`<report>([\s\S]*?)</report>`)

// ReportPrompt returns the report system prompt for an agent's business
// context and report language.
func ReportPrompt(agent config.Agent) string {
	return strings.NewReplacer(
		"{business_context}", agent.BusinessContext,
		"{language}", agent.LanguageName(),
	).Replace(reportPrompt)
}

// FormatReportPrompt renders records as indexed <Content> blocks behind the
// report lead-in.
func FormatReportPrompt(records []model.ContentRecord) string {
	blocks := make([]string, 0, len(records))
	for i, r := range records {
		blocks = append(blocks, fmt.Sprintf("<Content index=%d>\n%s\n</Content>", i+1, formatRecord(r)))
	}
	return reportLeadIn + strings.Join(blocks, "\n\n")
}

func formatRecord(r model.ContentRecord) string {
	var b strings.Builder
	b.WriteString("URL: " + r.URL + "\n")
	if r.Title != "" {
		b.WriteString("Title: " + r.Title + "\n")
	}
	if r.Description != "" {
		b.WriteString("Description: " + r.Description + "\n")
	}
	b.WriteString("\n")
	b.WriteString(r.Text)
	return strings.TrimRight(b.String(), "\n")
}

// ParseReport returns the trimmed body of the first <report> section in
// text. When no section is found it returns text unchanged and ok is false.
func ParseReport(text string) (report string, ok bool) {
	m := reportTag.FindStringSubmatch(text)
	if m == nil {
		return text, false
	}
	return strings.TrimSpace(m[1]), true
}

// ReportGenerator writes the marketing report for relevant content.
type ReportGenerator struct {
	invoker llm.Invoker
}

// NewReportGenerator creates a ReportGenerator.
func NewReportGenerator(invoker llm.Invoker) *ReportGenerator {
	return &ReportGenerator{invoker: invoker}
}

// Generate asks agent.ReportModel for a report over state.PageContents and
// returns a delta that sets the report.
func (g *ReportGenerator) Generate(ctx context.Context, state *model.PipelineState, agent config.Agent) (model.Delta, error) {
	if len(state.PageContents) == 0 {
		return model.Delta{}, ErrNoContent
	}

	msgs := []llm.Message{
		llm.System(ReportPrompt(agent)),
		llm.User(FormatReportPrompt(state.PageContents)),
	}

	comp, err := g.invoker.Invoke(ctx, agent.ReportModel, msgs)
	if err != nil {
		return model.Delta{}, eris.Wrap(err, "report: generate")
	}

	report, ok := ParseReport(comp.Text)
	if !ok {
		zap.L().Warn("pipeline: report tags missing, using raw generation",
			zap.String("url", state.URL),
			zap.Int("length", len(comp.Text)),
		)
	}
	return model.Delta{Report: &report, Usage: comp.Usage}, nil
}
