package main

import (
	"time"

	"github.com/spf13/pflag"

	"mercator-hq/courier/pkg/config"
)

// connectionOptions are the flags that shape how the upstream is reached.
// Each one overrides the configuration only when set on the command line.
type connectionOptions struct {
	baseURL    string
	apiKey     string
	proxy      string
	noProxy    bool
	proxyCA    string
	insecure   bool
	timeout    time.Duration
	maxRetries int
}

func addConnectionFlags(fs *pflag.FlagSet, o *connectionOptions) {
	fs.StringVar(&o.baseURL, "base-url", "", "API base URL (overrides OPENAI_BASE_URL)")
	fs.StringVar(&o.apiKey, "api-key", "", "API key sent as a Bearer token (overrides OPENAI_API_KEY)")
	fs.StringVar(&o.proxy, "proxy", "", "forward proxy URL (default http://localhost:8080)")
	fs.BoolVar(&o.noProxy, "no-proxy", false, "connect to the upstream directly")
	fs.StringVar(&o.proxyCA, "proxy-ca", "", "PEM file with the proxy's interception CA")
	fs.BoolVar(&o.insecure, "insecure", false, "skip upstream TLS certificate verification")
	fs.DurationVar(&o.timeout, "timeout", 0, "timeout for each attempt, including reading the response")
	fs.IntVar(&o.maxRetries, "max-retries", 0, "retries after the first attempt (default 0)")
}

// apply copies the flags that were set onto cfg.
func (o *connectionOptions) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("base-url") {
		cfg.Client.BaseURL = o.baseURL
	}
	if fs.Changed("api-key") {
		cfg.Client.APIKey = o.apiKey
	}
	if fs.Changed("proxy") {
		cfg.Proxy.URL = o.proxy
		cfg.Proxy.Disabled = false
	}
	if fs.Changed("no-proxy") {
		cfg.Proxy.Disabled = o.noProxy
	}
	if fs.Changed("proxy-ca") {
		cfg.Proxy.TLS.CACertFile = o.proxyCA
	}
	if fs.Changed("insecure") {
		cfg.Proxy.TLS.InsecureSkipVerify = o.insecure
	}
	if fs.Changed("timeout") {
		cfg.Client.Timeout = o.timeout
	}
	if fs.Changed("max-retries") {
		cfg.Client.MaxRetries = o.maxRetries
	}
}
