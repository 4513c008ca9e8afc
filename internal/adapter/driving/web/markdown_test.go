package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_Heading(t *testing.T) {
	result := RenderMarkdown("# COVID-19 Dashboard")
	assert.Contains(t, result, "COVID-19 Dashboard</h1>")
}

func TestRenderMarkdown_Image(t *testing.T) {
	result := RenderMarkdown("![New Cases](/charts/new_cases.png?kind=bar)")
	assert.Contains(t, result, `<img src="/charts/new_cases.png?kind=bar"`)
	assert.Contains(t, result, `alt="New Cases"`)
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderMarkdown_GFMTable(t *testing.T) {
	result := RenderMarkdown("| a | b |\n| --- | --- |\n| 1 | 2 |\n")
	assert.Contains(t, result, "<table>")
	assert.Contains(t, result, "<th>a</th>")
	assert.Contains(t, result, "<td>2</td>")
}

func TestMDCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Miami-Dade", "Miami-Dade"},
		{"a|b", `a\|b`},
		{"line\nbreak", "line break"},
		{"<b>x</b>", "&lt;b&gt;x&lt;/b&gt;"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, mdCell(tc.in))
		})
	}
}

func TestMDTable_RendersEscapedCells(t *testing.T) {
	var b strings.Builder
	mdTable(&b, []string{"name", "confirmed"}, [][]string{
		{"Pipe|County", "10"},
		{"<img src=x onerror=alert(1)>", "20"},
	})

	html := RenderMarkdown(b.String())

	require.Contains(t, html, "<table>")
	assert.Equal(t, 3, strings.Count(html, "<tr>"))
	assert.Contains(t, html, "<td>Pipe|County</td>")
	assert.NotContains(t, html, "<img")
	assert.Contains(t, html, "&lt;img src=x")
}
