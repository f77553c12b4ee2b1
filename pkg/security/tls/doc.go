/*
Package tls builds client-side TLS configuration for Courier.

Intercepting proxies terminate TLS and re-sign upstream certificates with
their own CA. Trusting that CA, instead of disabling verification, keeps
certificate checks in place:

	cfg := &tls.ClientConfig{
		CACertFile: "/etc/courier/proxy-ca.pem",
		MinVersion: "1.2",
	}

	tlsConfig, err := cfg.ToTLSConfig()
	if err != nil {
		log.Fatal(err)
	}

	transport := &http.Transport{TLSClientConfig: tlsConfig}

# Certificate Inspection

LoadCertificates, ExtractCertificateInfo and CheckCertificateExpiration back
the `courier check` report on the configured CA.
*/
package tls
