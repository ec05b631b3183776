package improver

import (
	"ticket_content_improver/images"
	"ticket_content_improver/richtext"
)

// Input 是一次改写的只读输入。
type Input struct {
	Title              string            `json:"title" yaml:"title"`
	Description        richtext.RichText `json:"description" yaml:"description"`
	AcceptanceCriteria []Criterion       `json:"acceptanceCriteria" yaml:"acceptanceCriteria"`
	Attachments        []Attachment      `json:"attachments" yaml:"attachments"`
}

// Criterion is one acceptance criterion. Completed is always false in
// results; the pipeline never ticks criteria off.
type Criterion struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Attachment is a file attached to the ticket.
type Attachment struct {
	URL  string `json:"url" yaml:"url"`
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// Result is the reconciled, sanitized output.
type Result struct {
	Description        string      `json:"description"`
	AcceptanceCriteria []Criterion `json:"acceptanceCriteria"`
}

func toImageAttachments(in []Attachment) []images.Attachment {
	out := make([]images.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, images.Attachment{URL: a.URL, Type: a.Type, Name: a.Name})
	}
	return out
}
