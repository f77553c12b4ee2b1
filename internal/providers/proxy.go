package providers

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ProxiedRequest records a request seen by ForwardProxy.
type ProxiedRequest struct {
	Method string
	URL    string
	Header http.Header
}

// ForwardProxy is a minimal HTTP forward proxy for tests. It forwards
// absolute-URI requests and tunnels CONNECT, recording what it saw.
type ForwardProxy struct {
	server    *httptest.Server
	transport *http.Transport

	mu         sync.Mutex
	requests   []ProxiedRequest
	rejectCode int
}

// NewForwardProxy starts a forward proxy on a loopback port.
func NewForwardProxy() *ForwardProxy {
	fp := &ForwardProxy{
		transport: &http.Transport{Proxy: nil},
	}
	fp.server = httptest.NewServer(http.HandlerFunc(fp.handler))
	return fp
}

// URL returns the proxy URL, e.g. http://127.0.0.1:41234.
func (fp *ForwardProxy) URL() string {
	return fp.server.URL
}

// Close stops the proxy.
func (fp *ForwardProxy) Close() {
	fp.server.Close()
	fp.transport.CloseIdleConnections()
}

// Reject makes the proxy answer every request with status code.
// Zero restores forwarding.
func (fp *ForwardProxy) Reject(code int) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.rejectCode = code
}

// Requests returns a copy of the recorded requests.
func (fp *ForwardProxy) Requests() []ProxiedRequest {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make([]ProxiedRequest, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// RequestCount returns the number of requests the proxy received.
func (fp *ForwardProxy) RequestCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.requests)
}

func (fp *ForwardProxy) handler(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	fp.requests = append(fp.requests, ProxiedRequest{
		Method: r.Method,
		URL:    r.URL.String(),
		Header: r.Header.Clone(),
	})
	rejectCode := fp.rejectCode
	fp.mu.Unlock()

	if rejectCode != 0 {
		http.Error(w, http.StatusText(rejectCode), rejectCode)
		return
	}

	if r.Method == http.MethodConnect {
		fp.tunnel(w, r)
		return
	}

	if !r.URL.IsAbs() {
		http.Error(w, "proxy requires an absolute URI", http.StatusBadRequest)
		return
	}

	out := r.Clone(r.Context())
	out.RequestURI = ""
	out.Header.Del("Proxy-Connection")

	resp, err := fp.transport.RoundTrip(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			_, _ = w.Write(buf[:n])
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// tunnel splices a CONNECT request to its target.
func (fp *ForwardProxy) tunnel(w http.ResponseWriter, r *http.Request) {
	upstream, err := net.Dial("tcp", r.Host)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		upstream.Close()
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)

	client, _, err := hijacker.Hijack()
	if err != nil {
		upstream.Close()
		return
	}

	go func() {
		_, _ = io.Copy(upstream, client)
		upstream.Close()
	}()
	go func() {
		_, _ = io.Copy(client, upstream)
		client.Close()
	}()
}
