package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/metrics"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// ProxyConfig describes the upstream and the transport responses go through.
type ProxyConfig struct {
	Addr     string
	Upstream *url.URL
	// Transport carries outbound requests. Pass the wrapping transport of a
	// Cushion so upstream responses are absorbed.
	Transport http.RoundTripper
	// Gatherer, when set, is exposed on /metrics.
	Gatherer prometheus.Gatherer
}

// HTTPServer extends the basic server with the reverse proxy
type HTTPServer struct {
	*Server
	upstream *url.URL
}

// NewHTTPServer creates a reverse proxy server for cfg
func NewHTTPServer(cfg ProxyConfig, log *zap.Logger) *HTTPServer {
	log = logger.OrNop(log)
	upstream := cfg.Upstream

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			// Let the transport negotiate compression so bodies arrive decoded.
			pr.Out.Header.Del("Accept-Encoding")
		},
		Transport: cfg.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("upstream request failed",
				logger.URL(r.URL.String()),
				zap.Error(err),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.Gatherer != nil {
		mux.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	// Everything else goes upstream
	mux.Handle("/", proxy)

	return &HTTPServer{
		Server:   New(cfg.Addr, mux, log),
		upstream: upstream,
	}
}

// Upstream returns the proxied base URL.
func (s *HTTPServer) Upstream() *url.URL {
	return s.upstream
}
