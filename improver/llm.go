package improver

import (
	"context"
	"net/http"
	"time"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is either text or an image URL (remote or data URI).
type ContentPart struct {
	Text     string
	ImageURL string
}

// Message 为空 Parts 时使用 Content 作为纯文本。
type Message struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// ChatRequest is one chat completion call.
type ChatRequest struct {
	Messages []Message
	Model    string
	Timeout  time.Duration
}

// ChatResponse carries the first choice's content; Content is nil when the
// service returned none. Raw is the undecoded body for logging.
type ChatResponse struct {
	Content *string
	Raw     string
}

// CompletionClient 抽象大模型客户端，便于替换/Mock。实现需可并发调用。
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}
