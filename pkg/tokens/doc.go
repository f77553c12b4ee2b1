// Package tokens estimates token counts for chat messages and replies.
//
// The estimate is character based: each model family has a
// characters-per-token ratio, configured under tokens.models. It is used
// when an upstream omits the usage block, which some OpenAI-compatible
// servers do for streamed replies, so that cost estimates and evidence
// records still carry token counts.
//
//	estimator := tokens.NewSimpleEstimator(&cfg.Tokens)
//	usage := estimator.EstimateUsage(req, resp.Content)
package tokens
