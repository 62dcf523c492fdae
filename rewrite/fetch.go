package rewrite

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const defaultUpstreamUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"

// FetchResult is everything the pipeline needs from one upstream response.
// EffectiveURL is the final URL after redirect following and is the base for
// all later resolution.
type FetchResult struct {
	Status       int
	Fields       []HeaderField
	Body         []byte
	EffectiveURL string
	ContentType  string
}

// FetchOptions bound and shape the outbound request.
type FetchOptions struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration
	UserAgent      string
	MaxBodyBytes   int64
	// InsecureTLS disables certificate verification toward the target.
	// Off by default; only enable for targets with broken or self-signed
	// certificates, and never in an exposed deployment.
	InsecureTLS bool
}

// Fetcher issues upstream requests. It owns no rewriting logic; it returns
// the raw response with the body fully buffered and content-decoded.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewFetcher builds a fetcher with bounded connect and total timeouts.
func NewFetcher(opt FetchOptions) *Fetcher {
	connect := opt.ConnectTimeout
	if connect <= 0 {
		connect = 10 * time.Second
	}
	total := opt.Timeout
	if total <= 0 {
		total = 30 * time.Second
	}
	dialer := &net.Dialer{Timeout: connect}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connect,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: opt.InsecureTLS},
	}
	ua := opt.UserAgent
	if ua == "" {
		ua = defaultUpstreamUA
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   total,
			Transport: transport,
		},
		userAgent: ua,
		maxBody:   opt.MaxBodyBytes,
	}
}

// Fetch performs a GET of target with redirect following. fwd carries the
// small set of headers forwarded from the inbound request (User-Agent,
// Accept, Accept-Language); missing ones get browser-like defaults.
func (f *Fetcher) Fetch(ctx context.Context, target string, fwd http.Header) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for name, values := range fwd {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	// Explicit Accept-Encoding turns off net/http's transparent gzip, so
	// every advertised encoding is decoded below.
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Host = req.URL.Host

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	var limited io.Reader = resp.Body
	if f.maxBody > 0 {
		limited = io.LimitReader(resp.Body, f.maxBody)
	}
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	body := decodeBody(raw, resp.Header.Get("Content-Encoding"))

	effective := target
	if resp.Request != nil && resp.Request.URL != nil {
		effective = resp.Request.URL.String()
	}
	return &FetchResult{
		Status:       resp.StatusCode,
		Fields:       headerFields(resp.Header),
		Body:         body,
		EffectiveURL: effective,
		ContentType:  resp.Header.Get("Content-Type"),
	}, nil
}

// decodeBody undoes the upstream Content-Encoding. A body that fails to
// decode is returned as-is; the pipeline degrades rather than erroring.
func decodeBody(raw []byte, encoding string) []byte {
	var reader io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return raw
		}
		defer gr.Close()
		reader = gr
	case "deflate":
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			reader = zr
		} else {
			reader = flate.NewReader(bytes.NewReader(raw))
		}
	case "br":
		reader = brotli.NewReader(bytes.NewReader(raw))
	default:
		return raw
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return raw
	}
	return decoded
}
