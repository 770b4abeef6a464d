package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Midterm\n\nBring **two** pencils.")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Midterm</h1>")
	assert.Contains(t, out, "<strong>two</strong>")
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	out := RenderMarkdown("hello <script>alert('x')</script> [link](javascript:alert(1))")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
}

func TestRenderMarkdown_ExternalLinks(t *testing.T) {
	out := RenderMarkdown("[syllabus](https://campus.example.edu/syllabus)")
	assert.Contains(t, out, `href="https://campus.example.edu/syllabus"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, "noreferrer")
}

func TestRenderMarkdown_GFMTables(t *testing.T) {
	out := RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, out, "<table>")
}
