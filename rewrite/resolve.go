package rewrite

import (
	neturl "net/url"
	"strings"
)

// Schemes that resolution leaves alone: either the reference is already
// absolute, or it is not something the proxy can route (data URIs, mail
// links, script links).
var passThroughSchemes = []string{
	"http://",
	"https://",
	"data:",
	"blob:",
	"mailto:",
	"javascript:",
}

// Resolve converts a reference plucked from a document into an absolute URL
// against base. It implements a restricted resolution algorithm rather than
// full RFC 3986 reference resolution: query strings in the reference are
// preserved, fragments are dropped, and `..` never pops past the path root.
// When the base is unusable the reference is returned unchanged so callers
// can degrade instead of failing.
func Resolve(ref, base string) string {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	for _, scheme := range passThroughSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ref
		}
	}
	if strings.HasPrefix(ref, "#") {
		return ref
	}

	bu, err := neturl.Parse(base)
	if err != nil || bu.Scheme == "" || bu.Host == "" {
		return ref
	}

	if strings.HasPrefix(ref, "//") {
		return bu.Scheme + ":" + ref
	}

	rawPath := ref
	if i := strings.IndexByte(rawPath, '#'); i >= 0 {
		rawPath = rawPath[:i]
	}
	query := ""
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		query = rawPath[i:]
		rawPath = rawPath[:i]
	}

	var work string
	if strings.HasPrefix(rawPath, "/") {
		work = rawPath
	} else {
		basePath := bu.EscapedPath()
		if basePath == "" {
			basePath = "/"
		}
		// Directory of the base path: everything up to and including the
		// last slash.
		dir := basePath[:strings.LastIndexByte(basePath, '/')+1]
		work = dir + rawPath
	}

	return bu.Scheme + "://" + bu.Host + normalizePath(work) + query
}

// normalizePath collapses "." and ".." segments. Popping past the start is a
// no-op so excess ".." segments can never underflow the path.
func normalizePath(p string) string {
	segs := strings.Split(p, "/")
	kept := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg {
		case "", ".":
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, seg)
		}
	}
	return "/" + strings.Join(kept, "/")
}
