package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToMarkdown(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"empty", "  ", ""},
		{"paragraphs", "<p>First  paragraph.</p>\n<p>Second\nline.</p>", "First paragraph.\n\nSecond line."},
		{"headings", "<h2>Setup</h2><h3>Step one</h3><p>Go.</p>", "## Setup\n\n### Step one\n\nGo."},
		{"emphasis", "<p>Click <strong>Save</strong> or <em>Cancel</em>.</p>", "Click **Save** or *Cancel*."},
		{"link", `<p>See <a href="https://x/y">the guide</a>.</p>`, "See [the guide](https://x/y)."},
		{"image", `<p><img src="a.png" alt="Screen"></p>`, "![Screen](a.png)"},
		{"inline code", "<p>Run <code>pair</code></p>", "Run `pair`"},
		{"pre", "<pre><code>line 1\n  line 2</code></pre>", "```\nline 1\n  line 2\n```"},
		{"unordered list", "<ul><li>One</li><li>Two</li></ul>", "- One\n- Two"},
		{"ordered list", "<ol><li>One</li><li>Two</li></ol>", "1. One\n2. Two"},
		{"nested list", "<ul><li>Top<ul><li>Inner</li></ul></li></ul>", "- Top\n  - Inner"},
		{"blockquote", "<blockquote><p>Note this.</p></blockquote>", "> Note this."},
		{"table", "<table><tr><th>Plan</th><th>Price</th></tr><tr><td>Pro</td><td>$10</td></tr></table>",
			"| Plan | Price |\n| --- | --- |\n| Pro | $10 |"},
		{"script dropped", "<p>Hi</p><script>alert(1)</script>", "Hi"},
		{"line break", "<p>a<br>b</p>", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToMarkdown(tt.html))
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := RenderMarkdown(Article{
		Title:   "How to pair",
		HTMLURL: "https://x/articles/1-how-to-pair",
		Body:    "<h1>Pairing</h1><p>Enter the code.</p>",
	})
	assert.Equal(t, "# How to pair\n\n[View Article](https://x/articles/1-how-to-pair)\n\n\n# Pairing\n\nEnter the code.\n", got)
}
