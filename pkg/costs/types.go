package costs

import "fmt"

// CostEstimate contains cost calculations in USD.
type CostEstimate struct {
	// PromptCost is the cost for prompt tokens in USD.
	PromptCost float64 `json:"prompt_cost"`

	// CompletionCost is the cost for completion tokens in USD.
	CompletionCost float64 `json:"completion_cost"`

	// TotalCost is the total cost in USD.
	TotalCost float64 `json:"total_cost"`

	// Model is the model the response reported.
	Model string `json:"model"`

	// Provider is the provider name.
	Provider string `json:"provider"`

	// PricingModel is the pricing table entry used, "default" on fallback.
	PricingModel string `json:"pricing_model"`

	Currency string `json:"currency"`
}

// String renders the estimate as a single summary line.
func (e *CostEstimate) String() string {
	return fmt.Sprintf("Request Cost: $%.6f", e.TotalCost)
}

// TokenUsage contains actual token counts from the provider response.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int

	// TotalTokens is the total number of tokens used.
	TotalTokens int

	// CachedTokens is the part of PromptTokens served from the prompt cache.
	CachedTokens int
}
