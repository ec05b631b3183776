package richtext

import (
	"strings"

	"golang.org/x/net/html"
)

// imageTag is one <img> element as seen in a token stream.
type imageTag struct {
	raw string
	src string
	// inert is set for <img> text inside a raw-text element such as
	// <textarea>; browsers never render it as an image.
	inert bool
}

func (t imageTag) hasSrc() bool { return t.src != "" }

// piece is one token of markup: either an <img> tag or verbatim bytes.
type piece struct {
	raw   string
	img   *imageTag
	text  bool // character data outside any tag
	inert bool
}

// rawTextElements are the elements whose body the tokenizer returns as a
// single text token.
var rawTextElements = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"textarea":  true,
	"title":     true,
	"xmp":       true,
}

// scan splits markup into pieces. Raw-text bodies are tokenized again so
// tags hidden in them are visible, flagged inert.
func scan(markup string, inert bool) []piece {
	z := html.NewTokenizer(strings.NewReader(markup))
	var out []piece
	inRaw := false
	for {
		tt := z.Next()
		// Raw must be copied before TagName/TagAttr, which lower-case the
		// underlying buffer in place.
		raw := string(z.Raw())
		if tt == html.ErrorToken {
			if raw != "" {
				out = append(out, piece{raw: raw, inert: inert})
			}
			return out
		}
		if tt == html.TextToken && inRaw {
			inRaw = false
			out = append(out, scan(raw, true)...)
			continue
		}
		inRaw = false
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out = append(out, piece{raw: raw, text: tt == html.TextToken, inert: inert})
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "img" {
			inRaw = tt == html.StartTagToken && rawTextElements[string(name)]
			out = append(out, piece{raw: raw, inert: inert})
			continue
		}
		img := &imageTag{raw: raw, inert: inert}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if img.src == "" && string(key) == "src" {
				img.src = strings.TrimSpace(string(val))
			}
		}
		out = append(out, piece{raw: raw, img: img, inert: inert})
	}
}

// rewriteImages walks markup token by token and replaces every <img>
// element with whatever fn returns. All other bytes are copied verbatim.
func rewriteImages(markup string, fn func(img imageTag) string) string {
	var b strings.Builder
	b.Grow(len(markup))
	for _, p := range scan(markup, false) {
		if p.img != nil {
			b.WriteString(fn(*p.img))
			continue
		}
		b.WriteString(p.raw)
	}
	return b.String()
}

// imageTags lists the raw <img> elements of markup in document order,
// including inert ones.
func imageTags(markup string) []string {
	var tags []string
	rewriteImages(markup, func(img imageTag) string {
		tags = append(tags, img.raw)
		return img.raw
	})
	return tags
}
