package tokens

import (
	"strings"

	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/providers"
)

// SimpleEstimator implements character-based token estimation using
// per-model characters-per-token ratios.
type SimpleEstimator struct {
	ratios map[string]float64
}

// NewSimpleEstimator creates an estimator from the configured ratios.
// A nil config uses config.DefaultCharsPerToken for every model.
func NewSimpleEstimator(cfg *config.TokensConfig) *SimpleEstimator {
	ratios := make(map[string]float64)
	if cfg != nil {
		for model, ratio := range cfg.Models {
			ratios[model] = ratio
		}
	}
	return &SimpleEstimator{ratios: ratios}
}

// EstimateText estimates tokens for a single text string. Non-empty text
// is at least one token.
func (e *SimpleEstimator) EstimateText(text string, model string) int {
	if text == "" {
		return 0
	}

	tokens := float64(len(text)) / e.charsPerToken(model)
	if tokens < 1.0 {
		return 1
	}

	return int(tokens + 0.5)
}

// EstimateMessages estimates prompt tokens for a conversation.
func (e *SimpleEstimator) EstimateMessages(messages []providers.Message, model string) int {
	if len(messages) == 0 {
		return 0
	}

	total := conversationOverhead
	for _, msg := range messages {
		total += roleTokens + messageOverhead
		total += e.EstimateText(msg.Content, model)
		if msg.Name != "" {
			total += e.EstimateText(msg.Name, model)
		}
	}

	return total
}

// EstimateUsage estimates prompt tokens from the request and completion
// tokens from the reply text.
func (e *SimpleEstimator) EstimateUsage(req *providers.CompletionRequest, reply string) providers.TokenUsage {
	if req == nil {
		return providers.TokenUsage{}
	}

	usage := providers.TokenUsage{
		PromptTokens:     e.EstimateMessages(req.Messages, req.Model),
		CompletionTokens: e.EstimateText(reply, req.Model),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return usage
}

// charsPerToken returns the ratio for a model: exact match, then the
// longest configured prefix, then "default".
func (e *SimpleEstimator) charsPerToken(model string) float64 {
	if ratio, ok := e.ratios[model]; ok {
		return ratio
	}

	best := ""
	for prefix := range e.ratios {
		if prefix != "default" && strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return e.ratios[best]
	}

	if ratio, ok := e.ratios["default"]; ok {
		return ratio
	}

	return config.DefaultCharsPerToken
}

var _ Estimator = (*SimpleEstimator)(nil)
