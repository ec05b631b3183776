package images

import (
	"net/url"
	"path"
	"strings"
)

// Attachment is a file attached to a ticket.
type Attachment struct {
	URL  string
	Type string
	Name string
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true,
}

// IsImage reports whether the attachment's declared type or file
// extension names an image.
func (a Attachment) IsImage() bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Type)), "image/") {
		return true
	}
	return imageExts[extOf(a.Name)] || imageExts[extOf(urlPath(a.URL))]
}

// Candidates lists image attachment URLs followed by the given image
// sources, in order. Duplicates are kept; Build removes them.
func Candidates(attachments []Attachment, sources []string) []string {
	out := make([]string, 0, len(attachments)+len(sources))
	for _, a := range attachments {
		if a.URL != "" && a.IsImage() {
			out = append(out, a.URL)
		}
	}
	return append(out, sources...)
}

func extOf(name string) string {
	return strings.ToLower(path.Ext(strings.TrimSpace(name)))
}

func urlPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return u.Path
}
