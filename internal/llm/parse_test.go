package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "json fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: "{\"a\": 1}",
		},
		{
			name: "bare fence",
			in:   "```\nhello\n```",
			want: "hello",
		},
		{
			name: "html fence",
			in:   "```html\n<section>hi</section>\n```",
			want: "<section>hi</section>",
		},
		{
			name: "no fence unchanged",
			in:   "  plain text  ",
			want: "plain text",
		},
		{
			name: "fence too short unchanged",
			in:   "```",
			want: "```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdownFences(tt.in))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON("Sure! Here is the plan: {\"sections\": [\"hero\"]} Hope it helps.")
	require.NoError(t, err)
	assert.Equal(t, `{"sections": ["hero"]}`, got)

	got, err = ExtractJSON(`[1, 2, 3] trailing`)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3]", got)

	_, err = ExtractJSON("no structured data here")
	assert.Error(t, err)

	_, err = ExtractJSON("{never closed")
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	type plan struct {
		Sections  []string `json:"sections"`
		Reasoning string   `json:"reasoning"`
	}

	raw := "```json\n{\"sections\": [\"hero\", \"footer\"], \"reasoning\": \"minimal\"}\n```"
	got, err := ParseJSON[plan](raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"hero", "footer"}, got.Sections)
	assert.Equal(t, "minimal", got.Reasoning)

	_, err = ParseJSON[plan]("the model rambled instead")
	assert.Error(t, err)

	_, err = ParseJSON[plan]("{\"sections\": 42}")
	assert.Error(t, err)
}
