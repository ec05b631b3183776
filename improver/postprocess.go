package improver

import (
	"strings"

	"github.com/tidwall/gjson"

	"ticket_content_improver/richtext"
)

// Parsed is the model reply before reconciliation.
type Parsed struct {
	Description        string
	AcceptanceCriteria []Criterion
}

// Empty reports a reply with neither description nor criteria.
func (p Parsed) Empty() bool {
	return strings.TrimSpace(p.Description) == "" && len(p.AcceptanceCriteria) == 0
}

// ParseResponse 解析模型返回的 JSON；先直接解析，失败时截取首个 { 到最后一个 } 再试，
// 仍失败则视为空结果。
func ParseResponse(raw string) Parsed {
	obj, ok := parseObject(raw)
	if !ok {
		return Parsed{}
	}
	return Parsed{
		Description:        parseDescription(obj.Get("description")),
		AcceptanceCriteria: parseCriteria(firstOf(obj, "acceptanceCriteria", "acceptance_criteria")),
	}
}

func parseObject(raw string) (gjson.Result, bool) {
	s := strings.TrimSpace(raw)
	if gjson.Valid(s) {
		if res := gjson.Parse(s); res.IsObject() {
			return res, true
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	sub := s[start : end+1]
	if !gjson.Valid(sub) {
		return gjson.Result{}, false
	}
	res := gjson.Parse(sub)
	return res, res.IsObject()
}

func parseDescription(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return richtext.Normalize(v.String())
	case v.IsObject():
		return richtext.Normalize(v.Value())
	default:
		return ""
	}
}

func parseCriteria(v gjson.Result) []Criterion {
	if !v.IsArray() {
		return nil
	}
	var out []Criterion
	for _, item := range v.Array() {
		if len(out) == maxCriteria {
			break
		}
		var text string
		switch {
		case item.Type == gjson.String:
			text = item.String()
		case item.IsObject():
			if t := item.Get("text"); t.Type == gjson.String {
				text = t.String()
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, Criterion{Text: text, Completed: false})
	}
	return out
}

func firstOf(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
