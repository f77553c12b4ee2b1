// Package openai implements the OpenAI chat completions adapter.
//
// It works against api.openai.com and any OpenAI-compatible server, and
// supports:
//
//   - Chat completions, keeping the exact upstream body in Raw
//   - Streaming responses (Server-Sent Events, with a final usage chunk)
//   - Listing models, which doubles as the health check
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    BaseURL:  "http://api.openai.com/v1",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    Timeout:  60 * time.Second,
//	    ProxyURL: "http://localhost:8080",
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:    "gpt-3.5-turbo",
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello, you are amazing."}},
//	})
//
// # Streaming
//
//	chunks, err := provider.StreamCompletion(ctx, req)
//	if err != nil {
//	    return err
//	}
//	for chunk := range chunks {
//	    if chunk.Error != nil {
//	        return chunk.Error
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// The client timeout covers the whole response, so long streams need a
// larger timeout.
package openai
