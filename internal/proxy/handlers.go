package proxy

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"webmirror/rewrite"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(s.cfg.IndexHTML)))
		io.WriteString(w, s.cfg.IndexHTML)
		return
	}
	s.runProxy(w, r, target)
}

// runProxy is the per-request pipeline: fetch, filter headers, rewrite body,
// respond. Each request is handled synchronously end to end with no state
// shared between requests.
func (s *Server) runProxy(w http.ResponseWriter, r *http.Request, rawTarget string) {
	target := normalizeTarget(rawTarget)
	if err := validateTarget(target); err != nil {
		http.Error(w, "bad target URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Wall-clock ceiling over the whole pipeline, not just the dial.
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	fwd := forwardHeaders(r)
	s.sites.Find(target).apply(fwd)

	res, err := s.fetcher.Fetch(ctx, target, fwd)
	if err != nil {
		s.logger.Printf("UPSTREAM fail target=%s err=%v", target, err)
		http.Error(w, "upstream fetch failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	enc := rewrite.Encoder{Path: r.URL.Path}
	fields := rewrite.ProcessHeaders(res.Fields, res.EffectiveURL, res.ContentType, enc)
	body := rewrite.Rewrite(res.Body, res.ContentType, res.EffectiveURL, enc)

	header := w.Header()
	for _, f := range fields {
		header.Add(f.Name, f.Value)
	}
	w.WriteHeader(res.Status)
	_, _ = w.Write(body)
	s.logger.Printf("OUT %d target=%s effective=%s ct=%q bytes=%d", res.Status, target, res.EffectiveURL, res.ContentType, len(body))
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "pong\n")
}

// forwardHeaders picks the small set of inbound headers that travel upstream.
func forwardHeaders(r *http.Request) http.Header {
	hdr := http.Header{}
	for _, name := range []string{"User-Agent", "Accept", "Accept-Language"} {
		if v := r.Header.Get(name); v != "" {
			hdr.Set(name, v)
		}
	}
	return hdr
}
