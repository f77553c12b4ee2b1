package costs

import (
	"fmt"
	"strings"

	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/providers"
)

// DefaultKey names the fallback provider and model in the pricing table.
const DefaultKey = "default"

// Calculator prices completions from their token usage.
type Calculator struct {
	config *config.CostsConfig
}

// NewCalculator creates a cost calculator over the given pricing table.
func NewCalculator(cfg *config.CostsConfig) *Calculator {
	if cfg == nil {
		cfg = &config.CostsConfig{}
	}
	return &Calculator{
		config: cfg,
	}
}

// CalculateResponseCost calculates the cost of a response from its actual
// token usage. Cached prompt tokens are billed at the cached rate when the
// model has one.
func (c *Calculator) CalculateResponseCost(usage *TokenUsage, model, provider string) (*CostEstimate, error) {
	if usage == nil {
		return nil, fmt.Errorf("usage cannot be nil")
	}

	pricing, err := c.GetModelPricing(model, provider)
	if err != nil {
		return nil, err
	}

	costEst := &CostEstimate{
		Model:        model,
		Provider:     provider,
		PricingModel: pricing.Model,
		Currency:     "USD",
	}

	promptTokens := usage.PromptTokens
	if usage.CachedTokens > 0 && pricing.CachedPromptCostPer1KTokens > 0 {
		uncachedTokens := promptTokens - usage.CachedTokens
		if uncachedTokens < 0 {
			uncachedTokens = 0
		}

		costEst.PromptCost = calculateTokenCost(uncachedTokens, pricing.PromptCostPer1KTokens) +
			calculateTokenCost(usage.CachedTokens, pricing.CachedPromptCostPer1KTokens)
	} else {
		costEst.PromptCost = calculateTokenCost(promptTokens, pricing.PromptCostPer1KTokens)
	}

	costEst.CompletionCost = calculateTokenCost(usage.CompletionTokens, pricing.CompletionCostPer1KTokens)
	costEst.TotalCost = costEst.PromptCost + costEst.CompletionCost

	return costEst, nil
}

// CalculateProviderResponseCost calculates the cost of a provider completion
// response, priced by the model the upstream reports.
func (c *Calculator) CalculateProviderResponseCost(resp *providers.CompletionResponse, provider string) (*CostEstimate, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	usage := &TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		CachedTokens:     resp.Usage.CachedPromptTokens,
	}

	return c.CalculateResponseCost(usage, resp.Model, provider)
}

// GetModelPricing retrieves pricing for a model. It tries an exact match,
// then the longest configured model name that prefixes model (so
// "gpt-3.5-turbo-0125" prices as "gpt-3.5-turbo"), then default/default.
func (c *Calculator) GetModelPricing(model, provider string) (*ModelPricing, error) {
	if providerPricing, ok := c.config.Pricing[provider]; ok {
		if modelConfig, ok := providerPricing[model]; ok {
			return newModelPricing(model, provider, modelConfig), nil
		}

		best := ""
		for pattern := range providerPricing {
			if strings.HasPrefix(model, pattern) && len(pattern) > len(best) {
				best = pattern
			}
		}
		if best != "" {
			return newModelPricing(best, provider, providerPricing[best]), nil
		}
	}

	if defaultModel, ok := c.config.Pricing[DefaultKey][DefaultKey]; ok {
		return newModelPricing(DefaultKey, DefaultKey, defaultModel), nil
	}

	return nil, fmt.Errorf("no pricing found for model %q and provider %q", model, provider)
}

func newModelPricing(model, provider string, cfg config.ModelPricingConfig) *ModelPricing {
	return &ModelPricing{
		Model:                       model,
		Provider:                    provider,
		PromptCostPer1KTokens:       cfg.Prompt,
		CompletionCostPer1KTokens:   cfg.Completion,
		CachedPromptCostPer1KTokens: cfg.CachedPrompt,
		Currency:                    "USD",
	}
}

// ModelPricing contains pricing information for a specific model.
type ModelPricing struct {
	// Model is the pricing table entry that matched.
	Model string

	// Provider is the provider name of the matched entry.
	Provider string

	// PromptCostPer1KTokens is the cost per 1000 prompt tokens in USD.
	PromptCostPer1KTokens float64

	// CompletionCostPer1KTokens is the cost per 1000 completion tokens in USD.
	CompletionCostPer1KTokens float64

	// CachedPromptCostPer1KTokens is the cost per 1000 cached prompt tokens in USD.
	CachedPromptCostPer1KTokens float64

	Currency string
}

// calculateTokenCost calculates the cost for a given number of tokens.
// costPer1K is the cost per 1000 tokens in USD.
func calculateTokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}

	return (float64(tokens) / 1000.0) * costPer1K
}
