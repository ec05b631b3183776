// Package images turns ticket image references into content parts that
// can be inlined into a chat-completion request.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"ticket_content_improver/logging"
	"ticket_content_improver/storage"
)

const (
	DefaultMaxImages = 3
	DefaultMaxBytes  = 2 << 20

	// StorageScheme marks an explicit internal storage reference.
	StorageScheme = "storage://"
)

var (
	ErrTooLarge = errors.New("image exceeds size limit")
	ErrNotImage = errors.New("object is not an image")
	errSkipped  = errors.New("source not fetchable")
	errNoStore  = errors.New("no storage reader configured")
)

// PartKind says how an image travels in the request.
type PartKind int

const (
	// Inline parts carry a base64 data URI.
	Inline PartKind = iota
	// Remote parts carry an http(s) URL the service fetches itself.
	Remote
)

// Part is one image for the completion request.
type Part struct {
	Kind        PartKind
	URL         string
	ContentType string
	Source      string
}

// Options bounds what a Builder sends.
type Options struct {
	MaxImages int
	MaxBytes  int64
	// PublicPrefix is the URL prefix under which storage objects are
	// served to editors, e.g. "/files/". Sources with it are storage paths.
	PublicPrefix string
	Logger       *slog.Logger
}

// Builder resolves image sources. It holds no per-call state and is safe
// for concurrent use.
type Builder struct {
	store storage.Reader
	opts  Options
	log   *slog.Logger
}

// NewBuilder returns a Builder; a nil store disables inline images.
func NewBuilder(store storage.Reader, opts Options) *Builder {
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Builder{store: store, opts: opts, log: logging.OrDefault(opts.Logger)}
}

// Build returns at most MaxImages parts for the candidate sources, in
// candidate order. Sources that cannot be fetched are left out.
func (b *Builder) Build(ctx context.Context, candidates []string) []Part {
	srcs := dedupe(candidates)
	parts := make([]Part, 0, b.opts.MaxImages)
	for len(srcs) > 0 && len(parts) < b.opts.MaxImages {
		if ctx.Err() != nil {
			break
		}
		n := min(b.opts.MaxImages-len(parts), len(srcs))
		window := srcs[:n]
		srcs = srcs[n:]

		got := make([]*Part, n)
		var g errgroup.Group
		for i, src := range window {
			i, src := i, src
			g.Go(func() error {
				p, err := b.resolve(ctx, src)
				if err != nil {
					b.log.Debug("image skipped", "src", src, "error", err)
					return nil
				}
				got[i] = p
				return nil
			})
		}
		_ = g.Wait()
		for _, p := range got {
			if p != nil {
				parts = append(parts, *p)
			}
		}
	}
	return parts
}

func (b *Builder) resolve(ctx context.Context, src string) (*Part, error) {
	if isRemote(src) {
		return &Part{Kind: Remote, URL: src, Source: src}, nil
	}
	ref, ok := b.storagePath(src)
	if !ok {
		return nil, errSkipped
	}
	return b.inline(ctx, src, ref)
}

func (b *Builder) inline(ctx context.Context, src, ref string) (*Part, error) {
	if b.store == nil {
		return nil, errNoStore
	}
	obj, err := b.store.GetObject(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()

	if obj.ContentLength > b.opts.MaxBytes {
		return nil, fmt.Errorf("%w: declared %d bytes", ErrTooLarge, obj.ContentLength)
	}
	data, err := readCapped(ctx, obj.Body, b.opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty object")
	}
	ct := contentType(obj.ContentType, ref, data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, ct)
	}
	return &Part{
		Kind:        Inline,
		URL:         "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data),
		ContentType: ct,
		Source:      src,
	}, nil
}

// storagePath maps a source to an object path; ok is false for sources
// that are neither storage references nor relative paths.
func (b *Builder) storagePath(src string) (string, bool) {
	switch {
	case strings.HasPrefix(src, StorageScheme):
		return strings.TrimPrefix(src, StorageScheme), true
	case b.opts.PublicPrefix != "" && strings.HasPrefix(src, b.opts.PublicPrefix):
		return strings.TrimPrefix(src, b.opts.PublicPrefix), true
	case strings.Contains(src, "://"), strings.HasPrefix(src, "//"), strings.Contains(strings.SplitN(src, "/", 2)[0], ":"):
		// other schemes (blob:, ftp://, protocol-relative) are not ours
		return "", false
	default:
		return src, true
	}
}

func readCapped(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: r}, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func contentType(declared, ref string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(ref))); byExt != "" {
		mt, _, _ := mime.ParseMediaType(byExt)
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func isRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isInline(src string) bool {
	return strings.HasPrefix(strings.ToLower(src), "data:")
}

// dedupe trims, drops blanks and data URIs, and keeps first-seen order.
func dedupe(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] || isInline(c) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
