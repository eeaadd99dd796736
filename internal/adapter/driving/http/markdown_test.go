package httphandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:  "empty input",
			input: "",
		},
		{
			name:     "basic formatting",
			input:    "**bold** and _italic_",
			contains: []string{"<strong>bold</strong>", "<em>italic</em>"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "code block survives",
			input:    "```\nfunc main() {}\n```",
			contains: []string{"<code>", "func main()"},
		},
		{
			name:     "script tag stripped",
			input:    "hello <script>alert(1)</script>",
			contains: []string{"hello"},
			excludes: []string{"<script>", "alert(1)"},
		},
		{
			name:     "event handler stripped",
			input:    `<a href="https://example.com" onclick="steal()">link</a>`,
			contains: []string{"link"},
			excludes: []string{"onclick"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderMarkdown(tt.input)
			if tt.input == "" {
				assert.Empty(t, got)
				return
			}
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, not := range tt.excludes {
				assert.NotContains(t, got, not)
			}
		})
	}
}
