package rewrite

import (
	"regexp"
	"strings"

	"github.com/aymerick/douceur/parser"
)

var (
	cssURLPattern    = regexp.MustCompile(`(?i)url\(\s*([^)]*?)\s*\)`)
	cssImportPattern = regexp.MustCompile(`(?i)(@import\s+)(["'])([^"']+)(["'])`)
)

// RewriteCSS re-points url() tokens and @import references of a standalone
// stylesheet at the proxy. The surrounding CSS text is left byte-identical.
func RewriteCSS(body []byte, baseURL string, enc Encoder) []byte {
	text := rewriteCSSURLs(string(body), baseURL, enc)
	text = cssImportPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := cssImportPattern.FindStringSubmatch(m)
		ref := strings.TrimSpace(sub[3])
		if ref == "" || !Proxiable(ref) {
			return m
		}
		return sub[1] + sub[2] + enc.Encode(Resolve(ref, baseURL)) + sub[4]
	})
	return []byte(text)
}

// rewriteCSSURLs is the url() token pass shared by stylesheets, <style>
// blocks and style attributes. It is a pure function of (match, base) with no
// captured state.
func rewriteCSSURLs(text, base string, enc Encoder) string {
	return cssURLPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := cssURLPattern.FindStringSubmatch(m)
		ref := trimMatchingQuotes(strings.TrimSpace(sub[1]))
		if ref == "" || !Proxiable(ref) {
			return m
		}
		return `url("` + enc.Encode(Resolve(ref, base)) + `")`
	})
}

// rewriteStyleDecls rewrites url() tokens inside an inline style attribute.
// The attribute is parsed into declarations first so broken trailing
// declarations don't swallow valid ones; if the parse fails the raw token
// pass runs over the whole attribute instead.
func rewriteStyleDecls(style, base string, enc Encoder) string {
	decls, err := parser.ParseDeclarations(style)
	if err != nil || len(decls) == 0 {
		return rewriteCSSURLs(style, base, enc)
	}
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		if d == nil || d.Property == "" {
			continue
		}
		val := rewriteCSSURLs(d.Value, base, enc)
		if d.Important {
			val += " !important"
		}
		out = append(out, d.Property+": "+val+";")
	}
	if len(out) == 0 {
		return rewriteCSSURLs(style, base, enc)
	}
	return strings.Join(out, " ")
}

func trimMatchingQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
