/*
Package secrets resolves credentials referenced from Courier configuration.

Configuration values may carry ${secret:name} references instead of literal
keys:

	client:
	  api_key: "${secret:openai-api-key}"

A Manager resolves them against an ordered list of providers:

  - FileProvider reads <dir>/<name>; files must be 0600 or 0400
  - EnvProvider reads <PREFIX><NAME> with hyphens mapped to underscores

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return err
	}
	key, err := manager.ResolveReferences(ctx, cfg.Client.APIKey)

Resolved values are cached in memory for the configured TTL. Secret names
are partially redacted in log output and values are never logged.
*/
package secrets
