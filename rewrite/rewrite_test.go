package rewrite

import (
	"bytes"
	"strings"
	"testing"
)

var testEnc = Encoder{Path: "/proxy"}

func TestRewriteHTMLImgSrc(t *testing.T) {
	t.Parallel()
	out := string(RewriteHTML([]byte(`<img src="pic.png">`), "http://site.test/dir/page.html", testEnc))
	want := `src="/proxy?url=http%3A%2F%2Fsite.test%2Fdir%2Fpic.png"`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
}

func TestRewriteHTMLBaseHrefOverride(t *testing.T) {
	t.Parallel()
	src := `<head><base href="/v2/"></head><body><a href="x">x</a></body>`
	out := string(RewriteHTML([]byte(src), "http://site.test/dir/page.html", testEnc))
	want := `href="/proxy?url=http%3A%2F%2Fsite.test%2Fv2%2Fx"`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
}

func TestRewriteHTMLAttributeMap(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"anchor", `<a href="a.html">x</a>`, `href="/proxy?url=http%3A%2F%2Fh%2Fd%2Fa.html"`},
		{"area", `<map><area href="/m"></map>`, `href="/proxy?url=http%3A%2F%2Fh%2Fm"`},
		{"link", `<link href="s.css" rel="stylesheet">`, `href="/proxy?url=http%3A%2F%2Fh%2Fd%2Fs.css"`},
		{"script", `<script src="//cdn.test/app.js"></script>`, `src="/proxy?url=http%3A%2F%2Fcdn.test%2Fapp.js"`},
		{"iframe", `<iframe src="frame.html"></iframe>`, `src="/proxy?url=http%3A%2F%2Fh%2Fd%2Fframe.html"`},
		{"form", `<form action="/submit"></form>`, `action="/proxy?url=http%3A%2F%2Fh%2Fsubmit"`},
		{"video poster", `<video poster="p.jpg"></video>`, `poster="/proxy?url=http%3A%2F%2Fh%2Fd%2Fp.jpg"`},
		{"audio", `<audio src="a.mp3"></audio>`, `src="/proxy?url=http%3A%2F%2Fh%2Fd%2Fa.mp3"`},
		{"source", `<video><source src="v.mp4"></video>`, `src="/proxy?url=http%3A%2F%2Fh%2Fd%2Fv.mp4"`},
		{"longdesc", `<img src="p.png" longdesc="d.html">`, `longdesc="/proxy?url=http%3A%2F%2Fh%2Fd%2Fd.html"`},
		{"absolute target", `<a href="http://other/x">x</a>`, `href="/proxy?url=http%3A%2F%2Fother%2Fx"`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			out := string(RewriteHTML([]byte(tc.src), "http://h/d/p.html", testEnc))
			if !strings.Contains(out, tc.want) {
				t.Fatalf("output %q missing %q", out, tc.want)
			}
		})
	}
}

func TestRewriteHTMLLeavesInertSchemes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		keep string
	}{
		{"fragment", `<a href="#top">x</a>`, `href="#top"`},
		{"javascript", `<a href="javascript:void(0)">x</a>`, `href="javascript:void(0)"`},
		{"data uri", `<img src="data:image/gif;base64,R0lGOD">`, `src="data:image/gif;base64,R0lGOD"`},
		{"mailto", `<a href="mailto:a@b.test">x</a>`, `href="mailto:a@b.test"`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			out := string(RewriteHTML([]byte(tc.src), "http://h/d/p.html", testEnc))
			if !strings.Contains(out, tc.keep) {
				t.Fatalf("output %q lost %q", out, tc.keep)
			}
		})
	}
}

func TestRewriteHTMLSrcset(t *testing.T) {
	t.Parallel()
	src := `<img srcset="a.png 1x, b.png 2x" src="a.png">`
	out := string(RewriteHTML([]byte(src), "http://h/d/p.html", testEnc))
	want := `srcset="/proxy?url=http%3A%2F%2Fh%2Fd%2Fa.png 1x, /proxy?url=http%3A%2F%2Fh%2Fd%2Fb.png 2x"`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
}

func TestRewriteHTMLStyleBlock(t *testing.T) {
	t.Parallel()
	src := `<style>body{background:url(/img/a.png)}</style>`
	out := string(RewriteHTML([]byte(src), "http://h/d/p.html", testEnc))
	want := `url("/proxy?url=http%3A%2F%2Fh%2Fimg%2Fa.png")`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
}

func TestRewriteHTMLStyleAttribute(t *testing.T) {
	t.Parallel()
	src := `<div style="background: url('bg.png'); color: red">x</div>`
	out := string(RewriteHTML([]byte(src), "http://h/d/p.html", testEnc))
	// html.Render escapes the quotes inside the attribute value.
	want := `url(&#34;/proxy?url=http%3A%2F%2Fh%2Fd%2Fbg.png&#34;)`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
	if !strings.Contains(out, "color: red") {
		t.Fatalf("output %q lost unrelated declaration", out)
	}
}

func TestRewriteHTMLMalformedNeverFails(t *testing.T) {
	t.Parallel()
	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("<<<><div <a href='"),
		[]byte("<a href=pic.png"),
	}
	for _, in := range inputs {
		out := RewriteHTML(in, "http://h/", testEnc)
		if out == nil {
			t.Fatalf("RewriteHTML(%q) returned nil", in)
		}
	}
}

func TestRewriteCSSStandalone(t *testing.T) {
	t.Parallel()
	css := `body{background:url(/img/a.png)} .x{color:red}`
	out := string(RewriteCSS([]byte(css), "http://site.test/css/main.css", testEnc))
	want := `body{background:url("/proxy?url=http%3A%2F%2Fsite.test%2Fimg%2Fa.png")} .x{color:red}`
	if out != want {
		t.Fatalf("RewriteCSS = %q, want %q", out, want)
	}
}

func TestRewriteCSSQuotedAndRelative(t *testing.T) {
	t.Parallel()
	css := `@font-face{src:url("../f/a.woff2")}`
	out := string(RewriteCSS([]byte(css), "http://h/css/site.css", testEnc))
	want := `url("/proxy?url=http%3A%2F%2Fh%2Ff%2Fa.woff2")`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
}

func TestRewriteCSSImport(t *testing.T) {
	t.Parallel()
	css := `@import "reset.css"; body{margin:0}`
	out := string(RewriteCSS([]byte(css), "http://h/css/site.css", testEnc))
	want := `@import "/proxy?url=http%3A%2F%2Fh%2Fcss%2Freset.css"`
	if !strings.Contains(out, want) {
		t.Fatalf("output %q missing %q", out, want)
	}
	if !strings.Contains(out, "body{margin:0}") {
		t.Fatalf("output %q disturbed unrelated CSS", out)
	}
}

func TestRewriteCSSLeavesDataURIs(t *testing.T) {
	t.Parallel()
	css := `.i{background:url(data:image/png;base64,AAAA)}`
	out := string(RewriteCSS([]byte(css), "http://h/css/site.css", testEnc))
	if out != css {
		t.Fatalf("data URI disturbed: %q", out)
	}
}

func TestRewriteDispatch(t *testing.T) {
	t.Parallel()
	binary := []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF, 0xFE}
	tests := []struct {
		name        string
		contentType string
		body        []byte
		passthrough bool
	}{
		{"png untouched", "image/png", binary, true},
		{"octet stream untouched", "application/octet-stream", binary, true},
		{"html with params rewritten", "text/html; charset=utf-8", []byte(`<img src="p.png">`), false},
		{"css rewritten", "text/css", []byte(`a{background:url(/x.png)}`), false},
		{"empty content type untouched", "", []byte("plain"), true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			out := Rewrite(tc.body, tc.contentType, "http://h/d/p", testEnc)
			if tc.passthrough != bytes.Equal(out, tc.body) {
				t.Fatalf("passthrough=%v violated for %q: %q", tc.passthrough, tc.contentType, out)
			}
		})
	}
}

func TestPrimaryContentType(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"text/html; charset=utf-8", "text/html"},
		{" TEXT/CSS ", "text/css"},
		{"image/png", "image/png"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := primaryContentType(tc.in); got != tc.want {
			t.Fatalf("primaryContentType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
