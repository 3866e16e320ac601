package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>EcoBottle</title>
<style>
body { color: #222; }
@media (max-width: 600px) { body { font-size: 14px; } }
</style>
</head>
<body>
<h1>EcoBottle</h1>
</body>
</html>`

func TestCheckHTMLValidDocument(t *testing.T) {
	res := checkHTML(validPage)
	assert.True(t, res.valid(), strings.Join(res.Issues, "; "))
	assert.Empty(t, res.Issues)
}

func TestCheckHTMLStructuralIssues(t *testing.T) {
	res := checkHTML("<div>hello</div>")
	require.False(t, res.valid())
	joined := strings.Join(res.Issues, "\n")
	assert.Contains(t, joined, "DOCTYPE")
	assert.Contains(t, joined, "<head>")
	assert.Contains(t, joined, "<title>")
	assert.Contains(t, joined, "viewport")
	assert.Len(t, res.Fixes, len(res.Issues)+len(res.Warnings))
}

func TestCheckHTMLUnbalancedCSS(t *testing.T) {
	page := strings.Replace(validPage, "body { color: #222; }", "body { color: #222;", 1)
	res := checkHTML(page)
	require.False(t, res.valid())
	assert.Contains(t, strings.Join(res.Issues, "\n"), "unmatched CSS braces")
}

func TestCheckHTMLJSLints(t *testing.T) {
	page := strings.Replace(validPage, "</body>",
		`<script>var x = 1; console.log(x); eval("x");</script></body>`, 1)
	res := checkHTML(page)
	require.False(t, res.valid())
	assert.Contains(t, strings.Join(res.Issues, "\n"), "eval()")
	warnings := strings.Join(res.Warnings, "\n")
	assert.Contains(t, warnings, "'var'")
	assert.Contains(t, warnings, "console.log")
}

func TestCheckHTMLUnbalancedJS(t *testing.T) {
	page := strings.Replace(validPage, "</body>",
		`<script>if (a { b(); }</script></body>`, 1)
	res := checkHTML(page)
	require.False(t, res.valid())
	assert.Contains(t, strings.Join(res.Issues, "\n"), "unmatched parentheses")
}

func TestCleanHTMLStripsFencesAndAddsDoctype(t *testing.T) {
	out := cleanHTML("```html\n<html lang=\"en\"></html>\n```")
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.NotContains(t, out, "```")
}
