package rewrite

import (
	"net/http"
	"sort"
	"strings"
)

// HeaderField is one received header line. Duplicates are kept as separate
// fields so responses with several Set-Cookie lines survive the trip.
type HeaderField struct {
	Name  string
	Value string
}

// Headers that must not reach the client. The first three pin the client to
// the upstream origin and would break proxied navigation; the last three
// describe a body framing that no longer applies once the body has been
// re-buffered and decoded here.
var droppedHeaders = map[string]struct{}{
	"content-security-policy":   {},
	"x-frame-options":           {},
	"strict-transport-security": {},
	"content-length":            {},
	"transfer-encoding":         {},
	"content-encoding":          {},
}

// ProcessHeaders filters and rewrites upstream response headers for
// forwarding. Location values are resolved against the effective URL and
// re-encoded as proxy links; only the first Location survives. The declared
// content type is appended last and wins over any upstream Content-Type
// duplicate. Everything else passes through verbatim, duplicates included.
func ProcessHeaders(fields []HeaderField, effectiveURL, contentType string, enc Encoder) []HeaderField {
	out := make([]HeaderField, 0, len(fields)+1)
	locationSeen := false
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		if _, drop := droppedHeaders[name]; drop {
			continue
		}
		switch name {
		case "location":
			if locationSeen {
				continue
			}
			locationSeen = true
			out = append(out, HeaderField{Name: "Location", Value: enc.Encode(Resolve(f.Value, effectiveURL))})
		case "content-type":
			// re-added from the declared type below
		default:
			out = append(out, f)
		}
	}
	if contentType != "" {
		out = append(out, HeaderField{Name: "Content-Type", Value: contentType})
	}
	return out
}

// headerFields flattens an http.Header into ordered fields. net/http does not
// keep the original wire order of distinct names, so names are emitted in
// sorted order; per-name value order (Set-Cookie and friends) is preserved.
func headerFields(h http.Header) []HeaderField {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]HeaderField, 0, len(h))
	for _, name := range names {
		for _, v := range h[name] {
			fields = append(fields, HeaderField{Name: name, Value: v})
		}
	}
	return fields
}
