// Package config provides configuration management for Courier.
//
// Configuration is read from an optional YAML file, completed with defaults,
// overridden from the environment and finally validated. Command-line flags
// are applied on top by the caller.
//
// # Configuration Loading
//
//	cfg, err := config.Load("courier.yaml") // file + env
//	cfg, err := config.Load("")             // defaults + env
//	cfg, err := config.LoadConfig("courier.yaml") // file only
//
// # Environment Variable Overrides
//
// The conventional OpenAI variables are honoured directly:
//
//   - OPENAI_BASE_URL overrides client.base_url
//   - OPENAI_API_KEY overrides client.api_key
//
// Everything else follows COURIER_SECTION_FIELD, for example
// COURIER_PROXY_URL overrides proxy.url and COURIER_LOG_LEVEL overrides
// telemetry.logging.level.
//
// # Configuration Precedence
//
// Later sources override earlier ones:
//
//  1. Default values
//  2. YAML file
//  3. Environment variables
//  4. Command-line flags
//
// # Example Configuration
//
//	client:
//	  base_url: "http://api.openai.com/v1"
//	  api_key: "${secret:openai-api-key}"
//	  timeout: "60s"
//	  max_retries: 0
//
//	proxy:
//	  url: "http://localhost:8080"
//	  ca_cert_file: "~/.llm_proxy/ca.pem"
//
//	request:
//	  model: "gpt-3.5-turbo"
//	  message: "Hello, you are amazing."
//
//	telemetry:
//	  logging:
//	    level: "warn"
//	    format: "text"
//
// # Validation
//
// Validate collects every problem into a ValidationError instead of stopping
// at the first one, so a user can fix a config file in one pass.
package config
