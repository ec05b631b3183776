// Package richtext handles ticket markup: normalizing rich-text values,
// swapping image elements for placeholder tokens and restoring them after
// the markup has been rewritten by a model.
package richtext

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Doc is the structured rich-text shape stored by editors.
type Doc struct {
	Content string `json:"content" yaml:"content"`
}

// RichText holds a description as it arrived: raw markup, a structured
// document, or a JSON-encoded document.
type RichText struct {
	value any
}

// NewRichText wraps any supported value.
func NewRichText(v any) RichText {
	return RichText{value: v}
}

// Markup returns the normalized markup string.
func (r RichText) Markup() string {
	return Normalize(r.value)
}

// IsZero reports whether no value was provided.
func (r RichText) IsZero() bool {
	return r.value == nil
}

func (r RichText) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

func (r *RichText) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	switch {
	case res.Type == gjson.String:
		r.value = res.String()
	case res.IsObject():
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			r.value = nil
			return nil
		}
		r.value = m
	default:
		// 其他形态（数字、数组、null）一律视为空
		r.value = nil
	}
	return nil
}

func (r *RichText) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			r.value = nil
			return nil
		}
		r.value = node.Value
	case yaml.MappingNode:
		var m map[string]any
		if err := node.Decode(&m); err != nil {
			r.value = nil
			return nil
		}
		r.value = m
	default:
		r.value = nil
	}
	return nil
}

// Normalize extracts a markup string from a rich-text value. It never
// fails: unsupported shapes yield "".
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return normalizeString(t)
	case []byte:
		return normalizeString(string(t))
	case json.RawMessage:
		res := gjson.ParseBytes(t)
		if res.Type == gjson.String {
			return normalizeString(res.String())
		}
		return contentField(res)
	case RichText:
		return Normalize(t.value)
	case *RichText:
		if t == nil {
			return ""
		}
		return Normalize(t.value)
	case Doc:
		return t.Content
	case *Doc:
		if t == nil {
			return ""
		}
		return t.Content
	case map[string]any:
		if s, ok := t["content"].(string); ok {
			return s
		}
		return ""
	case map[string]string:
		return t["content"]
	default:
		return ""
	}
}

func normalizeString(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return s
	}
	res := gjson.Parse(trimmed)
	if content := res.Get("content"); res.IsObject() && content.Type == gjson.String {
		return content.String()
	}
	return s
}

func contentField(res gjson.Result) string {
	if !res.IsObject() {
		return ""
	}
	content := res.Get("content")
	if content.Type != gjson.String {
		return ""
	}
	return content.String()
}
