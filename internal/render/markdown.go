package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contentgrade/internal/model"
)

// MarkdownWriter writes a human-readable summary of a run. When a report was
// generated its markdown body is embedded as-is.
type MarkdownWriter struct {
	out io.Writer
}

// Write implements Writer.
func (w *MarkdownWriter) Write(result *model.RunResult) error {
	if result == nil || result.State == nil {
		return eris.New("render: empty result")
	}
	md := markdown.NewMarkdown(w.out)
	state := result.State

	md.H1("Content Review")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", state.URL},
			{"Run ID", "`" + state.RunID + "`"},
			{"Relevant", relevantText(result)},
			{"Path", strings.Join(result.Path, " → ")},
			{"Duration", strconv.FormatInt(result.Duration, 10) + " ms"},
			{"Tokens", strconv.Itoa(state.Usage.Total())},
			{"Cost", fmt.Sprintf("$%.4f", state.Usage.Cost)},
		},
	})
	md.PlainText("")

	if result.Verdict != nil {
		md.H2("Verdict")
		md.PlainText("")
		if result.Verdict.IsRelevant() {
			md.Tip(result.Verdict.Reasoning)
		} else {
			md.Note(result.Verdict.Reasoning)
		}
		md.PlainText("")
	}

	writeFetchErrors(md, state.PageContents)

	if state.Report != nil {
		md.H2("Report")
		md.PlainText("")
		md.PlainText(*state.Report)
		md.PlainText("")
	}

	if len(state.Links) > 0 {
		md.H2("Links")
		md.PlainText("")
		md.BulletList(state.Links...)
		md.PlainText("")
	}

	writeStages(md, result.Stages)

	if err := md.Build(); err != nil {
		return eris.Wrap(err, "render: write markdown")
	}
	return nil
}

func relevantText(result *model.RunResult) string {
	if result.Relevant() {
		return "yes"
	}
	return "no"
}

func writeFetchErrors(md *markdown.Markdown, records []model.ContentRecord) {
	for _, r := range records {
		if r.Failed() {
			md.Warningf("Fetching %s failed: %s", r.URL, r.Error)
			md.PlainText("")
		}
	}
}

func writeStages(md *markdown.Markdown, stages []model.StageResult) {
	if len(stages) == 0 {
		return
	}
	rows := make([][]string, len(stages))
	for i, s := range stages {
		errText := s.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			s.Name,
			string(s.Status),
			strconv.FormatInt(s.Duration, 10),
			strconv.Itoa(s.TokenUsage.Total()),
			errText,
		}
	}
	md.H2("Stages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Status", "Duration (ms)", "Tokens", "Error"},
		Rows:   rows,
	})
}
