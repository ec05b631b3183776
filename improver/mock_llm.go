package improver

import (
	"context"
	"encoding/json"
	"strings"
)

// EchoClient 本地调试用，不调用外部模型：原样返回提示词里的描述和验收标准。
type EchoClient struct{}

func (EchoClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return ChatResponse{}, err
	}
	var user string
	for _, m := range req.Messages {
		if m.Role != RoleUser {
			continue
		}
		user = m.Content
		for _, p := range m.Parts {
			if p.Text != "" {
				user = p.Text
			}
		}
	}

	reply := struct {
		Description        string      `json:"description"`
		AcceptanceCriteria []Criterion `json:"acceptanceCriteria"`
	}{
		Description: section(user, descriptionHeader),
	}
	for _, line := range strings.Split(section(user, criteriaHeader), "\n") {
		line = strings.TrimSpace(line)
		if _, text, ok := strings.Cut(line, ". "); ok && text != "" {
			reply.AcceptanceCriteria = append(reply.AcceptanceCriteria, Criterion{Text: text})
		}
	}
	b, err := json.Marshal(reply)
	if err != nil {
		return ChatResponse{}, err
	}
	content := string(b)
	return ChatResponse{Content: &content, Raw: content}, nil
}

// section returns the fenced block that follows header.
func section(text, header string) string {
	_, rest, ok := strings.Cut(text, header+"\n"+blockOpen+"\n")
	if !ok {
		return ""
	}
	body, _, ok := strings.Cut(rest, "\n"+blockClose)
	if !ok {
		return ""
	}
	body = strings.TrimSpace(body)
	if body == noneMarker {
		return ""
	}
	return body
}
