package tokens

import "mercator-hq/courier/pkg/providers"

// Estimator estimates token counts for text and messages.
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text string, model string) int

	// EstimateMessages estimates prompt tokens for a conversation,
	// including per-message formatting overhead.
	EstimateMessages(messages []providers.Message, model string) int

	// EstimateUsage estimates the usage of a completed exchange.
	EstimateUsage(req *providers.CompletionRequest, reply string) providers.TokenUsage
}

// Per-message and per-conversation formatting overhead in tokens.
const (
	messageOverhead      = 3
	conversationOverhead = 3
	roleTokens           = 1
)
