package providers

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// newTransport builds the pooled transport with proxy routing and TLS.
func newTransport(config ProviderConfig) (*http.Transport, error) {
	proxy, err := proxyFunc(config)
	if err != nil {
		return nil, err
	}

	return &http.Transport{
		Proxy:               proxy,
		TLSClientConfig:     config.TLS,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}, nil
}

// proxyFunc returns the transport's Proxy function.
//
// An explicit ProxyURL is used for every request, loopback hosts included,
// unless the host matches NoProxy. http.ProxyFromEnvironment is only the
// fallback when no proxy is configured.
func proxyFunc(config ProviderConfig) (func(*http.Request) (*url.URL, error), error) {
	if config.DisableProxy {
		return nil, nil
	}
	if config.ProxyURL == "" {
		return http.ProxyFromEnvironment, nil
	}

	proxyURL, err := url.Parse(config.ProxyURL)
	if err != nil {
		return nil, &ConfigError{
			Provider: config.Name,
			Field:    "proxy_url",
			Message:  err.Error(),
		}
	}

	switch proxyURL.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, &ConfigError{
			Provider: config.Name,
			Field:    "proxy_url",
			Message:  "scheme must be http, https or socks5",
		}
	}
	if proxyURL.Host == "" {
		return nil, &ConfigError{
			Provider: config.Name,
			Field:    "proxy_url",
			Message:  "host is required",
		}
	}

	noProxy := config.NoProxy
	return func(req *http.Request) (*url.URL, error) {
		if bypassProxy(req.URL.Hostname(), noProxy) {
			return nil, nil
		}
		return proxyURL, nil
	}, nil
}

// bypassProxy reports whether host matches an entry in noProxy.
func bypassProxy(host string, noProxy []string) bool {
	host = strings.ToLower(host)
	for _, entry := range noProxy {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if entry == "*" {
			return true
		}
		if h, _, err := net.SplitHostPort(entry); err == nil {
			entry = h
		}
		entry = strings.TrimPrefix(entry, ".")
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// isProxyConnectError reports whether err happened while connecting to
// or tunnelling through the proxy.
func isProxyConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
		return true
	}
	return strings.Contains(err.Error(), "proxyconnect")
}

// redactedProxy returns the proxy URL with any password masked.
func redactedProxy(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
