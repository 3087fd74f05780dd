// Package cost estimates the USD cost of model calls from token usage.
package cost

import (
	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/model"
)

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input         float64
	Output        float64
	CacheWriteMul float64
	CacheReadMul  float64
}

// Rates maps model names to their pricing. Keys are either full model IDs
// ("openrouter/openai/gpt-4o-mini") or provider-local names
// ("claude-haiku-4-5-20251001").
type Rates map[string]ModelRate

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// FromConfig builds a Calculator from DefaultRates overlaid with the
// configured pricing table.
func FromConfig(cfg config.PricingConfig) *Calculator {
	rates := DefaultRates()
	for name, p := range cfg.Models {
		rates[name] = ModelRate{
			Input:         p.Input,
			Output:        p.Output,
			CacheWriteMul: p.CacheWriteMul,
			CacheReadMul:  p.CacheReadMul,
		}
	}
	return NewCalculator(rates)
}

// Rate looks up pricing for a model ID, first by full ID and then by the
// provider-local name.
func (c *Calculator) Rate(modelID string) (ModelRate, bool) {
	if rate, ok := c.rates[modelID]; ok {
		return rate, true
	}
	_, name := config.SplitModelID(modelID)
	rate, ok := c.rates[name]
	return rate, ok
}

// Tokens computes the cost of a model call. Unknown models cost 0.
func (c *Calculator) Tokens(modelID string, u model.TokenUsage) float64 {
	rate, ok := c.Rate(modelID)
	if !ok {
		return 0
	}

	inCost := (float64(u.InputTokens) / 1e6) * rate.Input
	outCost := (float64(u.OutputTokens) / 1e6) * rate.Output
	cwCost := (float64(u.CacheCreationTokens) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(u.CacheReadTokens) / 1e6) * rate.Input * rate.CacheReadMul

	return inCost + outCost + cwCost + crCost
}

// Apply returns u with its Cost field set for modelID.
func (c *Calculator) Apply(modelID string, u model.TokenUsage) model.TokenUsage {
	u.Cost = c.Tokens(modelID, u)
	return u
}

// DefaultRates returns the built-in pricing table.
func DefaultRates() Rates {
	return Rates{
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-opus-4-6":            {Input: 15.00, Output: 75.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"openai/gpt-4o-mini":         {Input: 0.15, Output: 0.60},
		"openai/gpt-4o":              {Input: 2.50, Output: 10.00},
	}
}
