package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/cost"
	"github.com/sells-group/contentgrade/internal/llm"
	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/pipeline"
	"github.com/sells-group/contentgrade/internal/resilience"
	"github.com/sells-group/contentgrade/internal/scrape"
	anthropicpkg "github.com/sells-group/contentgrade/pkg/anthropic"
	"github.com/sells-group/contentgrade/pkg/firecrawl"
	"github.com/sells-group/contentgrade/pkg/jina"
	"github.com/sells-group/contentgrade/pkg/openrouter"
)

// runner executes one pipeline run. *pipeline.Pipeline satisfies it.
type runner interface {
	Run(ctx context.Context, rawURL string, overrides map[string]any) (*model.RunResult, error)
}

// pipelineEnv holds the pipeline and the shared clients behind it, as
// needed by the run/batch/serve/mcp commands.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Router   *llm.Router
	Fetcher  *scrape.Chain
	Breakers *resilience.ServiceBreakers
}

// initPipeline validates cfg for mode and builds the pipeline.
func initPipeline(c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	breakers := resilience.NewServiceBreakers(
		resilience.FromCircuitConfig(c.Fetch.BreakerThreshold, c.Fetch.BreakerResetSecs),
	)
	router := buildRouter(c)
	fetcher := buildFetcher(c, breakers)

	zap.L().Info("pipeline initialised",
		zap.Int("model_providers", router.Providers()),
		zap.Strings("scrapers", fetcher.Names()),
		zap.String("grader_model", c.Agent.GraderModel),
		zap.String("report_model", c.Agent.ReportModel),
	)

	return &pipelineEnv{
		Pipeline: pipeline.New(fetcher, router, c.Agent),
		Router:   router,
		Fetcher:  fetcher,
		Breakers: breakers,
	}, nil
}

// buildRouter registers a backend for every provider with credentials.
func buildRouter(c *config.Config) *llm.Router {
	router := llm.NewRouter(
		llm.WithRetry(resilience.FromModelConfig(c.Model)),
		llm.WithCalculator(cost.FromConfig(c.Pricing)),
	)
	opts := llm.BackendOptions{
		StructuredMaxTokens: c.Model.GraderMaxTokens,
		TextMaxTokens:       c.Model.ReportMaxTokens,
		Temperature:         c.Model.Temperature,
	}

	if c.Anthropic.Key != "" {
		router.Register(config.ProviderAnthropic, llm.NewAnthropicBackend(anthropicpkg.NewClient(c.Anthropic.Key), opts))
	}
	if c.OpenRouter.Key != "" {
		client := openrouter.NewClient(c.OpenRouter.Key,
			openrouter.WithBaseURL(c.OpenRouter.BaseURL),
			openrouter.WithAppName(config.AppName),
		)
		router.Register(config.ProviderOpenRouter, llm.NewOpenRouterBackend(client, opts))
	}
	return router
}

// buildFetcher assembles the scraper chain: plain HTTP first, then the
// headless browser when enabled, then the Jina reader and Firecrawl when
// their keys are set.
func buildFetcher(c *config.Config, breakers *resilience.ServiceBreakers) *scrape.Chain {
	scrapers := []scrape.Scraper{scrape.NewLocalScraper(c.Fetch)}
	if c.Fetch.Browser {
		scrapers = append(scrapers, scrape.NewBrowserScraper(c.Fetch, breakers.Get("browser")))
	}
	if c.Jina.Key != "" {
		client := jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL))
		scrapers = append(scrapers, scrape.NewJinaAdapter(client, breakers.Get("jina")))
	} else {
		zap.L().Debug("CONTENTGRADE_JINA_KEY not set, jina reader fallback disabled")
	}
	if c.Firecrawl.Key != "" {
		client := firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL))
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(client, breakers.Get("firecrawl")))
	} else {
		zap.L().Debug("CONTENTGRADE_FIRECRAWL_KEY not set, firecrawl fallback disabled")
	}
	return scrape.NewChain(scrapers...)
}
