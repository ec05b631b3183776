package improver

import (
	"fmt"
	"strings"

	"ticket_content_improver/richtext"
)

const (
	descriptionHeader = "Description:"
	criteriaHeader    = "Acceptance criteria:"
	blockOpen         = "<<<"
	blockClose        = ">>>"
	noneMarker        = "(none)"

	maxCriteria = 10
)

const systemPrompt = `You improve software tickets for a project-management tool.
Respond with exactly one JSON object and nothing else, with this shape:
{"description": "<improved description as HTML>", "acceptanceCriteria": [{"text": "<criterion>"}]}
Rules:
- Keep the description as HTML using simple elements (p, ul, ol, li, strong, em, code, pre, h2, h3).
- Rewrite for clarity and completeness without inventing requirements.
- Return at most 10 acceptance criteria, each one testable and concise.
- Never output <img> elements; images are referenced only by placeholder tokens.`

// Prompt 表示发送给 LLM 的消息内容。
type Prompt struct {
	System string
	User   string
}

// BuildPrompt 生成改写提示词。description 必须已完成占位符替换。
func BuildPrompt(in Input, description string, placeholders []richtext.Placeholder) Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title (context only, do not change): %s\n\n", strings.TrimSpace(in.Title)))

	sb.WriteString(descriptionHeader + "\n" + blockOpen + "\n")
	if strings.TrimSpace(description) == "" {
		sb.WriteString(noneMarker)
	} else {
		sb.WriteString(description)
	}
	sb.WriteString("\n" + blockClose + "\n\n")

	sb.WriteString(criteriaHeader + "\n" + blockOpen + "\n")
	n := 0
	for _, c := range in.AcceptanceCriteria {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		n++
		sb.WriteString(fmt.Sprintf("%d. %s\n", n, text))
	}
	if n == 0 {
		sb.WriteString(noneMarker + "\n")
	}
	sb.WriteString(blockClose + "\n")

	if len(placeholders) > 0 {
		sb.WriteString("\nThe description contains image placeholders: ")
		sb.WriteString(strings.Join(richtext.Tokens(placeholders), ", "))
		sb.WriteString(".\nEach placeholder must appear exactly once in the returned description. ")
		sb.WriteString("You may move a placeholder to a better position, but never change, split, translate or remove it.\n")
	}
	sb.WriteString("\nReturn the improved ticket as the JSON object described above.")

	return Prompt{System: systemPrompt, User: sb.String()}
}
