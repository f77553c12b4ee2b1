package providers

import (
	"crypto/tls"

	"mercator-hq/courier/pkg/config"
)

// ConfigFromCourier builds a ProviderConfig from the loaded configuration.
// tlsConfig is the client TLS built from cfg.Proxy.TLS and may be nil.
func ConfigFromCourier(cfg *config.Config, tlsConfig *tls.Config, userAgent string) ProviderConfig {
	pc := ProviderConfig{
		Name:                cfg.Client.Name,
		Type:                "openai",
		BaseURL:             cfg.Client.BaseURL,
		APIKey:              cfg.Client.APIKey,
		Timeout:             cfg.Client.Timeout,
		MaxRetries:          cfg.Client.MaxRetries,
		MaxIdleConns:        cfg.Client.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Client.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Client.IdleConnTimeout,
		TLS:                 tlsConfig,
		UserAgent:           userAgent,
	}

	if cfg.ProxyEnabled() {
		pc.ProxyURL = cfg.Proxy.URL
		pc.NoProxy = cfg.Proxy.NoProxy
	} else {
		pc.DisableProxy = true
	}

	return pc
}
