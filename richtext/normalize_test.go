package richtext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"plain markup", "<p>hello</p>", "<p>hello</p>"},
		{"json doc string", `{"type":"doc","content":"<p>from json</p>"}`, "<p>from json</p>"},
		{"json doc with whitespace", "  {\"content\":\"<p>x</p>\"}\n", "<p>x</p>"},
		{"json without content", `{"type":"doc"}`, `{"type":"doc"}`},
		{"json with non-string content", `{"content":[1,2]}`, `{"content":[1,2]}`},
		{"broken json", `{"content": "<p>`, `{"content": "<p>`},
		{"map", map[string]any{"content": "<p>m</p>"}, "<p>m</p>"},
		{"map without content", map[string]any{"body": "x"}, ""},
		{"map with number content", map[string]any{"content": 3}, ""},
		{"doc", Doc{Content: "<p>d</p>"}, "<p>d</p>"},
		{"doc pointer", &Doc{Content: "<p>d</p>"}, "<p>d</p>"},
		{"nil doc pointer", (*Doc)(nil), ""},
		{"raw message object", json.RawMessage(`{"content":"<p>r</p>"}`), "<p>r</p>"},
		{"raw message string", json.RawMessage(`"<p>s</p>"`), "<p>s</p>"},
		{"number", 42, ""},
		{"rich text", NewRichText(map[string]any{"content": "<p>rt</p>"}), "<p>rt</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRichTextUnmarshalJSON(t *testing.T) {
	var in struct {
		A RichText `json:"a"`
		B RichText `json:"b"`
		C RichText `json:"c"`
		D RichText `json:"d"`
		E RichText `json:"e"`
	}
	raw := `{
		"a": "<p>plain</p>",
		"b": {"content": "<p>obj</p>"},
		"c": "{\"content\":\"<p>encoded</p>\"}",
		"d": null,
		"e": [1, 2]
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &in))

	assert.Equal(t, "<p>plain</p>", in.A.Markup())
	assert.Equal(t, "<p>obj</p>", in.B.Markup())
	assert.Equal(t, "<p>encoded</p>", in.C.Markup())
	assert.True(t, in.D.IsZero())
	assert.Equal(t, "", in.D.Markup())
	assert.Equal(t, "", in.E.Markup())
}

func TestRichTextUnmarshalYAML(t *testing.T) {
	var in struct {
		A RichText `yaml:"a"`
		B RichText `yaml:"b"`
		C RichText `yaml:"c"`
	}
	raw := "a: <p>plain</p>\nb:\n  content: <p>obj</p>\nc: null\n"
	require.NoError(t, yaml.Unmarshal([]byte(raw), &in))

	assert.Equal(t, "<p>plain</p>", in.A.Markup())
	assert.Equal(t, "<p>obj</p>", in.B.Markup())
	assert.True(t, in.C.IsZero())
}

func TestRichTextMarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewRichText("<p>x</p>"))
	require.NoError(t, err)
	assert.JSONEq(t, `"<p>x</p>"`, string(b))
}
