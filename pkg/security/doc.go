/*
Package security groups the client-side security helpers.

# Proxy TLS

An intercepting proxy re-signs upstream certificates with its own CA. The
tls subpackage turns the proxy.tls settings into a crypto/tls.Config that
trusts that CA in addition to the system roots:

	tlsConfig, err := tls.FromConfig(cfg.Proxy.TLS).ToTLSConfig()
	if err != nil {
		log.Fatal(err)
	}

# Secret References

The secrets subpackage resolves secret references in the API key so the
key itself never has to appear in a config file:

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		log.Fatal(err)
	}
	apiKey, err := manager.ResolveReferences(ctx, cfg.Client.APIKey)
*/
package security
