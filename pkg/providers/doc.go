// Package providers implements the provider-agnostic layer of Courier.
//
// # Overview
//
// It defines the request/response types, typed errors and the Provider
// interface, plus HTTPProvider, the shared HTTP base that concrete adapters
// (see the openai subpackage) embed.
//
// # Proxy Routing
//
// HTTPProvider builds its transport so that every request is sent through
// ProviderConfig.ProxyURL, loopback upstreams included. Plain http upstreams
// are forwarded as absolute-URI requests the proxy can read and rewrite;
// https upstreams are tunnelled with CONNECT and verified against
// ProviderConfig.TLS, which normally trusts the proxy's MITM CA.
//
//	config := providers.ProviderConfig{
//	    Name:     "openai",
//	    Type:     "openai",
//	    BaseURL:  "http://api.openai.com/v1",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    Timeout:  60 * time.Second,
//	    ProxyURL: "http://localhost:8080",
//	}
//
// Hosts in NoProxy bypass the proxy. DisableProxy connects directly.
//
// # Retries
//
// MaxRetries defaults to zero: one attempt, and the first error is returned
// to the caller. When raised, network errors, timeouts and 5xx responses are
// retried with exponential backoff. Authentication, rate limit, other 4xx
// and proxy errors are never retried.
//
// # Correlation
//
// Each logical request gets a UUID X-Request-ID and carries the W3C
// traceparent of the active span, so entries in the proxy's traffic log can
// be matched to client logs and traces.
//
// # Error Handling
//
//	resp, err := provider.SendCompletion(ctx, req)
//	if err != nil {
//	    var proxyErr *providers.ProxyError
//	    if errors.As(err, &proxyErr) {
//	        // Is the proxy running?
//	    }
//	    return err
//	}
//
// ErrorType maps any of these errors to a short label for metrics.
package providers
