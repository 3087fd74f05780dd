package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/render"
)

var (
	runURL    string
	runSets   []string
	runFormat string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Grade a single URL and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := parseOverrides(runSets)
		if err != nil {
			return err
		}

		env, err := initPipeline(cfg, "run")
		if err != nil {
			return err
		}

		return runOne(cmd.Context(), env.Pipeline, runURL, overrides, runFormat, os.Stdout)
	},
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "absolute URL of the submitted content (required)")
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "run option override as key=value (repeatable)")
	runCmd.Flags().StringVar(&runFormat, "format", render.FormatJSON, "output format: json, yaml or markdown")
	_ = runCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(runCmd)
}

// runOne executes a single run and renders the result to out. The writer is
// resolved before the run so a bad format fails without spending tokens.
func runOne(ctx context.Context, p runner, rawURL string, overrides map[string]any, format string, out io.Writer) error {
	w, err := render.NewWriter(format, out)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, rawURL, overrides)
	if err != nil {
		return eris.Wrap(err, "pipeline run")
	}

	zap.L().Info("run complete",
		zap.String("url", rawURL),
		zap.Bool("relevant", result.Relevant()),
		zap.Int("total_tokens", result.State.Usage.Total()),
		zap.Float64("cost_usd", result.State.Usage.Cost),
	)

	return w.Write(result)
}

// parseOverrides turns repeated key=value flags into a run options map.
func parseOverrides(sets []string) (map[string]any, error) {
	overrides := make(map[string]any, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, eris.Errorf("run: invalid --set %q, want key=value", s)
		}
		overrides[k] = v
	}
	return overrides, nil
}
