// Courier sends OpenAI-compatible chat completions through a local
// intercepting proxy and prints the response.
//
// By default it sends one message, "Hello, you are amazing.", to
// gpt-3.5-turbo at $OPENAI_BASE_URL (http://api.openai.com/v1 when unset),
// routed through http://localhost:8080, and prints the upstream JSON.
//
// Usage:
//
//	# Send the default message through the default proxy
//	courier
//
//	# Send a custom message and print only the reply
//	courier "What is a forward proxy?" --output text
//
//	# Check that the proxy and upstream are reachable
//	courier check --models
//
//	# Print the effective configuration
//	courier config show --config courier.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
