package improver

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "gpt-4o-mini"

// OpenAIClient implements CompletionClient using the official openai-go SDK
// (chat completions). It also serves OpenAI-compatible endpoints via BaseURL.
type OpenAIClient struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAIClient(cfg LLMSettings) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ConfigurationError("completion service api key missing; set llm.api_key or OPENAI_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	// retries belong to the caller
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAIClient{Model: model, Opts: opts}, nil
}

func (o *OpenAIClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	model := req.Model
	if model == "" {
		model = o.Model
	}

	client := openai.NewClient(o.Opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	})
	if err != nil {
		return ChatResponse{}, mapOpenAIError(ctx, req, err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{Raw: resp.RawJSON()}, nil
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return ChatResponse{Raw: resp.RawJSON()}, nil
	}
	return ChatResponse{Content: &content, Raw: resp.RawJSON()}, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			if len(m.Parts) == 0 {
				out = append(out, openai.UserMessage(m.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
			for _, p := range m.Parts {
				if p.ImageURL != "" {
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: p.ImageURL}))
					continue
				}
				parts = append(parts, openai.TextContentPart(p.Text))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}

func mapOpenAIError(ctx context.Context, req ChatRequest, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return UpstreamError(apiErr.StatusCode, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return TimeoutError(req.Timeout, err)
	}
	return UpstreamError(0, err)
}
