package frontend

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewProxy forwards requests to the frontend dev server at target.
func NewProxy(target string, logger *slog.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse frontend proxy url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("frontend proxy url %q must be absolute", target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			// Credentials stay with the API.
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("X-API-Key")
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("frontend_proxy_failed",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "FRONTEND_UNAVAILABLE", "frontend dev server is not reachable")
		},
	}, nil
}
