package http

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"brewtrack/internal/log"
)

// newDevProxy forwards requests to target unchanged except for the Host
// header. Certificate checks are off: it is meant for local development
// against a backend with a self-signed certificate.
func newDevProxy(target string, logger *log.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse proxy target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", target)
	}
	logger = logger.WithComponent(log.ComponentProxy)

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.URL.Path = pr.In.URL.Path
			pr.Out.URL.RawPath = pr.In.URL.RawPath
			pr.Out.Host = u.Host
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "Proxy request failed",
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // development only
	rp.Transport = transport
	return rp, nil
}
