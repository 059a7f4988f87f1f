package httputil

import (
	"net"
	"net/http"
	"time"
)

// NewClient builds an HTTP client with an overall request timeout and a
// transport tuned for a small number of long-lived hosts. There is no retry
// layer anywhere: a failed call is recorded by the caller and skipped.
func NewClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
