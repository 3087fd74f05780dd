package main

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the verify_content tool over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cfg, "run")
		if err != nil {
			return err
		}

		zap.L().Info("starting MCP server over stdio")
		return newMCPServer(env.Pipeline).Run(cmd.Context(), &sdkmcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

type verifyInput struct {
	URL    string            `json:"url" jsonschema:"absolute http(s) URL of the submitted content"`
	Config map[string]string `json:"config,omitempty" jsonschema:"run option overrides: grader_model, report_model, business_context, report_language"`
}

type verifyOutput struct {
	RunID         string   `json:"run_id"`
	Relevant      bool     `json:"relevant"`
	Reasoning     string   `json:"reasoning,omitempty"`
	RelevantLinks []string `json:"relevant_links"`
	Report        string   `json:"report,omitempty"`
	CostUSD       float64  `json:"cost_usd"`
}

// newMCPServer builds an MCP server exposing p as the verify_content tool.
func newMCPServer(p runner) *sdkmcp.Server {
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "contentgrade", Version: version}, nil)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "verify_content",
		Description: "Fetch a URL, decide whether it implements the company's products and, if it does, write a marketing report on it.",
	}, verifyHandler(p))
	return srv
}

func verifyHandler(p runner) func(context.Context, *sdkmcp.CallToolRequest, verifyInput) (*sdkmcp.CallToolResult, verifyOutput, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in verifyInput) (*sdkmcp.CallToolResult, verifyOutput, error) {
		overrides := make(map[string]any, len(in.Config))
		for k, v := range in.Config {
			overrides[k] = v
		}

		result, err := p.Run(ctx, in.URL, overrides)
		if err != nil {
			return nil, verifyOutput{}, fmt.Errorf("verify_content: %w", err)
		}

		out := verifyOutput{
			RunID:         result.State.RunID,
			Relevant:      result.Relevant(),
			RelevantLinks: result.State.RelevantLinks,
			CostUSD:       result.State.Usage.Cost,
		}
		if result.Verdict != nil {
			out.Reasoning = result.Verdict.Reasoning
		}
		if result.State.Report != nil {
			out.Report = *result.State.Report
		}
		return nil, out, nil
	}
}
