package proxy

import (
	"log"
	"net/http"

	"webmirror/rewrite"
)

const defaultIndexHTML = `<!DOCTYPE html>
<html><head><title>webmirror</title></head><body>
<h1>webmirror</h1>
<form action="" method="get">
URL: <input name="url" size="60" placeholder="https://example.com/">
<button type="submit">Go</button>
</form>
</body></html>`

// Server exposes the HTTP handlers implementing the proxy behaviour.
type Server struct {
	cfg     Config
	mux     *http.ServeMux
	handler http.Handler
	logger  *log.Logger
	fetcher *rewrite.Fetcher
	sites   *siteConfigStore
}

// New wires a new proxy server with the provided configuration.
func New(cfg Config) *Server {
	if cfg.IndexHTML == "" {
		cfg.IndexHTML = defaultIndexHTML
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		logger: cfg.Logger,
		fetcher: rewrite.NewFetcher(rewrite.FetchOptions{
			ConnectTimeout: cfg.ConnectTimeout,
			Timeout:        cfg.RequestTimeout,
			UserAgent:      cfg.UserAgent,
			MaxBodyBytes:   cfg.MaxBodyBytes,
			InsecureTLS:    cfg.InsecureTLS,
		}),
		sites: newSiteConfigStore(cfg.SitesDir),
	}
	s.registerRoutes()
	s.handler = withLogging(s.logger, s.mux)
	return s
}

// NewServer wires a server from environment configuration.
func NewServer() http.Handler {
	return New(DefaultConfig())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/ping", s.handlePing)
}
