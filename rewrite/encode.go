package rewrite

import (
	neturl "net/url"
	"strings"
)

// Encoder mints the client-facing links that loop navigation back through the
// proxy. Path is the proxy's own request path, taken from the inbound request
// rather than hardcoded so the server works behind any mount point. Every
// rewritten reference in the system goes through Encode; nothing else is
// allowed to construct a proxied link.
type Encoder struct {
	Path string
}

// Encode wraps an absolute target URL into `<path>?url=<escaped target>`.
// Spaces are escaped as %20, not '+', so the link survives attribute and CSS
// contexts unchanged and decoding the url parameter round-trips exactly.
func (e Encoder) Encode(target string) string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return path + "?url=" + strings.ReplaceAll(neturl.QueryEscape(target), "+", "%20")
}

// Proxiable reports whether a reference may be routed through the proxy at
// all. Fragment-only references and scheme types the client must handle
// itself (data, blob, mailto, javascript) are left untouched in documents.
func Proxiable(ref string) bool {
	r := strings.TrimSpace(ref)
	if r == "" || strings.HasPrefix(r, "#") {
		return false
	}
	lower := strings.ToLower(r)
	for _, scheme := range []string{"data:", "blob:", "mailto:", "javascript:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}
