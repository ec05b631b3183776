package richtext

import (
	"fmt"
	"regexp"
)

// Placeholder ties a synthetic token to the image element it replaced.
type Placeholder struct {
	Token string `json:"placeholder"`
	Src   string `json:"src"`
	Tag   string `json:"tag"`
}

var tokenPattern = regexp.MustCompile(`\[\[IMAGE_\d+\]\]`)

// TokenFor returns the placeholder token for the n-th image (1-based).
func TokenFor(n int) string {
	return fmt.Sprintf("[[IMAGE_%d]]", n)
}

// ExtractImages replaces every <img> that has a src with a placeholder
// token and returns the substituted markup plus the placeholders in
// document order. Images without a src, and img text inside raw-text
// elements, are left as they are.
func ExtractImages(markup string) (string, []Placeholder) {
	var placeholders []Placeholder
	out := rewriteImages(markup, func(img imageTag) string {
		if img.inert || !img.hasSrc() {
			return img.raw
		}
		p := Placeholder{
			Token: TokenFor(len(placeholders) + 1),
			Src:   img.src,
			Tag:   img.raw,
		}
		placeholders = append(placeholders, p)
		return p.Token
	})
	return out, placeholders
}

// Sources returns the placeholder sources in order, duplicates included.
func Sources(placeholders []Placeholder) []string {
	out := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		out = append(out, p.Src)
	}
	return out
}

// Tokens returns the placeholder tokens in order.
func Tokens(placeholders []Placeholder) []string {
	out := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		out = append(out, p.Token)
	}
	return out
}
