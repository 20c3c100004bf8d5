package normalisers

import "testing"

func TestMarkdownNormaliser_Normalise(t *testing.T) {
	n := &MarkdownNormaliser{}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "headings links and images",
			input: "# Title\n\nSome **bold** and [a link](https://example.com).\n\n![alt text](img.png)",
			want:  "Title\n\nSome bold and a link.\n\nalt text",
		},
		{
			name:  "identifiers and arithmetic survive",
			input: "Set max_input_chars and use 2*3*4 math",
			want:  "Set max_input_chars and use 2*3*4 math",
		},
		{
			name:  "reference links",
			input: "See [the docs][docs].\n\n[docs]: https://example.com/docs",
			want:  "See the docs.",
		},
		{
			name:  "nested emphasis",
			input: "***very*** important",
			want:  "very important",
		},
		{
			name:  "code span",
			input: "Call `foo_bar()` now",
			want:  "Call foo_bar() now",
		},
		{
			name:  "fenced code kept",
			input: "Intro\n\n```go\nx := 1\n```\n\nAfter",
			want:  "Intro\n\nx := 1\n\nAfter",
		},
		{
			name:  "raw html dropped",
			input: "Hello <span>there</span>",
			want:  "Hello there",
		},
		{
			name:  "soft line breaks join",
			input: "first line\nsecond line",
			want:  "first line second line",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalise(tt.input, "text/markdown"); got != tt.want {
				t.Errorf("Normalise(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
