// Package sanitize cleans reconciled ticket HTML before it leaves the
// pipeline.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Sanitizer is a pure markup-to-markup function.
type Sanitizer interface {
	Sanitize(markup string) string
}

// Func adapts a plain function to Sanitizer.
type Func func(string) string

func (f Func) Sanitize(markup string) string { return f(markup) }

// Nop returns markup unchanged, for callers that sanitize elsewhere.
var Nop Sanitizer = Func(func(s string) string { return s })

// dangerous elements are removed together with their content.
var dropSelectors = []string{
	"script", "style", "noscript",
	"iframe", "frame", "frameset", "object", "embed", "applet",
	"form", "input", "button", "select", "textarea",
	"link", "meta", "base", "svg", "math",
}

var urlAttrs = map[string]bool{
	"href": true, "src": true, "action": true, "formaction": true,
	"poster": true, "background": true, "xlink:href": true, "srcset": true,
}

// Policy is the default goquery-backed sanitizer.
type Policy struct {
	drop string
}

func NewPolicy() *Policy {
	return &Policy{drop: strings.Join(dropSelectors, ", ")}
}

// Sanitize parses markup as a body fragment, removes active content and
// re-serializes it. Unparseable input yields "".
func (p *Policy) Sanitize(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	doc.Find(p.drop).Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Attr = cleanAttrs(n)
		}
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return out
}

func cleanAttrs(n *html.Node) []html.Attribute {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		switch {
		case strings.HasPrefix(key, "on"), key == "srcdoc":
			continue
		case key == "style" && unsafeStyle(a.Val):
			continue
		case urlAttrs[key] && !safeURL(n.Data, key, a.Val):
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func safeURL(tag, key, val string) bool {
	v := compact(val)
	switch {
	case strings.HasPrefix(v, "javascript:"), strings.HasPrefix(v, "vbscript:"):
		return false
	case strings.HasPrefix(v, "data:"):
		return tag == "img" && key == "src" &&
			strings.HasPrefix(v, "data:image/") && !strings.HasPrefix(v, "data:image/svg")
	}
	return true
}

func unsafeStyle(val string) bool {
	v := compact(val)
	return strings.Contains(v, "expression(") || strings.Contains(v, "javascript:") || strings.Contains(v, "url(")
}

// compact lower-cases and strips whitespace and control characters, which
// browsers ignore inside URL schemes.
func compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r <= ' ' || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
