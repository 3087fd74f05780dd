// Package render writes run results in the output formats the CLI supports.
package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contentgrade/internal/model"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Writer outputs a run result.
type Writer interface {
	Write(result *model.RunResult) error
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatMarkdown}
}

// NewWriter returns the Writer for format. "md" is accepted as an alias for
// markdown and "yml" for yaml.
func NewWriter(format string, out io.Writer) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		return &JSONWriter{out: out}, nil
	case FormatYAML, "yml":
		return &YAMLWriter{out: out}, nil
	case FormatMarkdown, "md":
		return &MarkdownWriter{out: out}, nil
	default:
		return nil, eris.Errorf("render: unknown format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// JSONWriter writes indented JSON followed by a newline.
type JSONWriter struct {
	out io.Writer
}

// Write implements Writer.
func (w *JSONWriter) Write(result *model.RunResult) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return eris.Wrap(err, "render: encode json")
	}
	return nil
}

// YAMLWriter writes a YAML document.
type YAMLWriter struct {
	out io.Writer
}

// Write implements Writer.
func (w *YAMLWriter) Write(result *model.RunResult) error {
	enc := yaml.NewEncoder(w.out)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return eris.Wrap(err, "render: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "render: flush yaml")
	}
	return nil
}
