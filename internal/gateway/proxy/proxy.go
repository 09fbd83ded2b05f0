package proxy

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// NewServiceProxy builds a reverse proxy to a downstream service. When
// stripPrefix is set, it is removed from the forwarded path so the gateway
// can expose services under an /api/* namespace they do not know about.
func NewServiceProxy(rawURL, stripPrefix string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(strings.TrimSuffix(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid downstream URL %q: %w", rawURL, err)
	}

	rp := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host
			if stripPrefix != "" {
				if stripped := strings.TrimPrefix(req.URL.Path, stripPrefix); stripped != req.URL.Path {
					if stripped == "" {
						stripped = "/"
					}
					req.URL.Path = stripped
				}
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("Downstream %s unreachable for %s: %v", target.Host, r.URL.Path, err)
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("Downstream service unavailable"))
		},
	}
	return rp, nil
}
