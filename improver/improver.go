// Package improver rewrites ticket descriptions and acceptance criteria
// with a chat-completion model while keeping every original image.
package improver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ticket_content_improver/images"
	"ticket_content_improver/logging"
	"ticket_content_improver/richtext"
	"ticket_content_improver/sanitize"
)

const DefaultTimeout = 30 * time.Second

// Options tunes an Improver; zero values use defaults.
type Options struct {
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Improver 负责一次完整的改写流程。所有中间状态都在单次调用内创建，可并发使用。
type Improver struct {
	llm       CompletionClient
	images    *images.Builder
	sanitizer sanitize.Sanitizer
	opts      Options
	log       *slog.Logger
}

// New builds an Improver. A nil image builder sends no images; a nil
// sanitizer uses sanitize.NewPolicy.
func New(llm CompletionClient, imgs *images.Builder, s sanitize.Sanitizer, opts Options) (*Improver, error) {
	if llm == nil {
		return nil, errors.New("completion client is required")
	}
	if s == nil {
		s = sanitize.NewPolicy()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Improver{
		llm:       llm,
		images:    imgs,
		sanitizer: s,
		opts:      opts,
		log:       logging.OrDefault(opts.Logger),
	}, nil
}

// Improve runs the pipeline for one ticket. It returns either a complete
// reconciled result or an *Error; it never retries.
func (im *Improver) Improve(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	markup := in.Description.Markup()
	substituted, placeholders := richtext.ExtractImages(markup)

	var parts []images.Part
	if im.images != nil {
		candidates := images.Candidates(toImageAttachments(in.Attachments), richtext.Sources(placeholders))
		parts = im.images.Build(ctx, candidates)
	}
	im.log.Debug("ticket prepared",
		"title", in.Title,
		"placeholders", len(placeholders),
		"image_parts", len(parts),
		"criteria", len(in.AcceptanceCriteria))

	prompt := BuildPrompt(in, substituted, placeholders)
	raw, err := im.complete(ctx, prompt, parts)
	if err != nil {
		im.log.Warn("completion failed", "error", err, "retryable", IsRetryable(err), "elapsed", time.Since(start))
		return Result{}, err
	}

	parsed := ParseResponse(raw)
	if parsed.Empty() {
		return Result{}, InvalidResponseError("model returned neither a description nor acceptance criteria")
	}

	description, st := richtext.ReconcileWithStats(parsed.Description, placeholders)
	im.log.Info("ticket improved",
		"model", im.opts.Model,
		"elapsed", time.Since(start),
		"images", len(placeholders),
		"by_tag", st.ByTag,
		"by_token", st.ByToken,
		"recovered", st.Recovered,
		"dropped", st.Dropped,
		"duplicates", st.Duplicates,
		"criteria", len(parsed.AcceptanceCriteria))

	criteria := parsed.AcceptanceCriteria
	if criteria == nil {
		criteria = []Criterion{}
	}
	return Result{
		Description:        im.sanitizer.Sanitize(description),
		AcceptanceCriteria: criteria,
	}, nil
}

func (im *Improver) complete(ctx context.Context, prompt Prompt, parts []images.Part) (string, error) {
	user := Message{Role: RoleUser, Content: prompt.User}
	if len(parts) > 0 {
		user.Parts = append(user.Parts, ContentPart{Text: prompt.User})
		for _, p := range parts {
			user.Parts = append(user.Parts, ContentPart{ImageURL: p.URL})
		}
	}
	req := ChatRequest{
		Messages: []Message{{Role: RoleSystem, Content: prompt.System}, user},
		Model:    im.opts.Model,
		Timeout:  im.opts.Timeout,
	}

	cctx, cancel := context.WithTimeout(ctx, im.opts.Timeout)
	defer cancel()
	resp, err := im.llm.CreateChatCompletion(cctx, req)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			return "", pe
		}
		if cctx.Err() != nil {
			return "", TimeoutError(im.opts.Timeout, err)
		}
		return "", UpstreamError(0, err)
	}
	if resp.Content == nil {
		return "", nil
	}
	return *resp.Content, nil
}
