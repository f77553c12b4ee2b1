package providers

import "context"

// Provider is the interface implemented by chat completion adapters.
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return immediately when
// the context is cancelled.
//
// Example usage:
//
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model: "gpt-3.5-turbo",
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Hello, you are amazing."},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(resp.Raw)
type Provider interface {
	// SendCompletion sends a completion request and returns the normalized
	// response. The exact upstream body is kept in CompletionResponse.Raw.
	//
	// Transient failures (network errors, 5xx) are retried only when the
	// provider is configured with MaxRetries > 0.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends a streaming completion request.
	// It returns a channel that yields incremental response chunks as they arrive.
	//
	// The caller must read from the channel until it closes. If an error occurs during
	// streaming, it will be set in the Error field of the final StreamChunk.
	//
	//  chunks, err := provider.StreamCompletion(ctx, req)
	//  if err != nil {
	//      return err
	//  }
	//  for chunk := range chunks {
	//      if chunk.Error != nil {
	//          return chunk.Error
	//      }
	//      fmt.Print(chunk.Delta)
	//  }
	StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error)

	// HealthCheck sends a lightweight request through the configured proxy
	// and returns nil if the upstream answered.
	HealthCheck(ctx context.Context) error

	// GetName returns the provider's configured name.
	GetName() string

	// GetType returns the provider's type (e.g., "openai").
	GetType() string

	// GetConfig returns the provider's configuration.
	GetConfig() ProviderConfig

	// IsHealthy returns the health status from the most recent requests.
	IsHealthy() bool

	// GetHealth returns detailed health information.
	GetHealth() ProviderHealth

	// Close releases idle connections. After calling Close, the provider
	// should not be used.
	Close() error
}

// StreamReader abstracts the underlying SSE protocol used by a provider.
type StreamReader interface {
	// Read returns the next chunk, or nil and io.EOF when the stream ends.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close closes the stream and releases resources.
	Close() error
}
