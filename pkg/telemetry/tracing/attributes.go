package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for Courier spans. HTTP keys follow semantic conventions.
const (
	AttrProvider  = "courier.provider"
	AttrModel     = "courier.model"
	AttrRequestID = "courier.request_id"
	AttrProxy     = "courier.proxy"
	AttrAttempt   = "courier.attempt"
	AttrStream    = "courier.stream"

	AttrTokensPrompt     = "courier.tokens.prompt"
	AttrTokensCompletion = "courier.tokens.completion"
	AttrTokensTotal      = "courier.tokens.total"

	AttrCost      = "courier.cost.total"
	AttrErrorType = "courier.error.type"

	AttrHTTPMethod     = "http.request.method"
	AttrHTTPStatusCode = "http.response.status_code"
	AttrURLFull        = "url.full"
)

// SetProviderAttributes sets provider and model on a span.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}

// SetTokenAttributes sets token counts on a span.
func SetTokenAttributes(span trace.Span, prompt, completion, total int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, prompt),
		attribute.Int(AttrTokensCompletion, completion),
		attribute.Int(AttrTokensTotal, total),
	)
}
