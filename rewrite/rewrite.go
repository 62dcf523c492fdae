package rewrite

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// The fixed attribute map: every element/attribute pair whose value is a
// navigable or loadable reference.
var attrTargets = []struct {
	sel  cascadia.Selector
	attr string
}{
	{cascadia.MustCompile("a[href]"), "href"},
	{cascadia.MustCompile("area[href]"), "href"},
	{cascadia.MustCompile("link[href]"), "href"},
	{cascadia.MustCompile("img[src]"), "src"},
	{cascadia.MustCompile("img[longdesc]"), "longdesc"},
	{cascadia.MustCompile("script[src]"), "src"},
	{cascadia.MustCompile("iframe[src]"), "src"},
	{cascadia.MustCompile("form[action]"), "action"},
	{cascadia.MustCompile("video[poster]"), "poster"},
	{cascadia.MustCompile("audio[src]"), "src"},
	{cascadia.MustCompile("source[src]"), "src"},
}

var (
	baseSel   = cascadia.MustCompile("base[href]")
	styleSel  = cascadia.MustCompile("style")
	styledSel = cascadia.MustCompile("[style]")
	srcsetSel = cascadia.MustCompile("img[srcset], source[srcset]")
)

// Rewrite dispatches on the primary content-type token. HTML and CSS bodies
// come back with every reference re-pointed at the proxy; everything else
// passes through untouched.
func Rewrite(body []byte, contentType, baseURL string, enc Encoder) []byte {
	switch primaryContentType(contentType) {
	case "text/html":
		return RewriteHTML(body, baseURL, enc)
	case "text/css":
		return RewriteCSS(body, baseURL, enc)
	default:
		return body
	}
}

func primaryContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// RewriteHTML parses body, re-points the attribute map, srcset lists, style
// blocks and style attributes at the proxy, and serializes the tree back.
// Rewriting never fails: the parser recovers from malformed markup, and an
// unresolvable reference is encoded as-is for a best-effort link.
func RewriteHTML(body []byte, baseURL string, enc Encoder) []byte {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return body
	}

	base := baseURL
	if n := baseSel.MatchFirst(doc); n != nil {
		if href := getAttr(n, "href"); href != "" {
			base = Resolve(href, baseURL)
		}
	}

	for _, target := range attrTargets {
		for _, n := range target.sel.MatchAll(doc) {
			rewriteAttr(n, target.attr, base, enc)
		}
	}
	for _, n := range srcsetSel.MatchAll(doc) {
		setAttr(n, "srcset", rewriteSrcset(getAttr(n, "srcset"), base, enc))
	}
	for _, n := range styleSel.MatchAll(doc) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				c.Data = rewriteCSSURLs(c.Data, base, enc)
			}
		}
	}
	for _, n := range styledSel.MatchAll(doc) {
		setAttr(n, "style", rewriteStyleDecls(getAttr(n, "style"), base, enc))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return body
	}
	return buf.Bytes()
}

func rewriteAttr(n *html.Node, name, base string, enc Encoder) {
	for i, a := range n.Attr {
		if !strings.EqualFold(a.Key, name) {
			continue
		}
		if !Proxiable(a.Val) {
			continue
		}
		n.Attr[i].Val = enc.Encode(Resolve(a.Val, base))
	}
}

// rewriteSrcset re-points each candidate URL of a srcset list while keeping
// its width/density descriptor.
func rewriteSrcset(srcset, base string, enc Encoder) string {
	parts := strings.Split(srcset, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		cand := strings.TrimSpace(part)
		if cand == "" {
			continue
		}
		ref := cand
		desc := ""
		if i := strings.IndexFunc(cand, unicode.IsSpace); i >= 0 {
			ref = cand[:i]
			desc = strings.TrimSpace(cand[i:])
		}
		if Proxiable(ref) {
			ref = enc.Encode(Resolve(ref, base))
		}
		if desc != "" {
			ref += " " + desc
		}
		out = append(out, ref)
	}
	return strings.Join(out, ", ")
}

func getAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}
