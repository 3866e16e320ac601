package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// checkResult is the outcome of the structural HTML/CSS/JS checks.
type checkResult struct {
	Issues   []string
	Fixes    []string
	Warnings []string
}

func (r checkResult) valid() bool { return len(r.Issues) == 0 }

var (
	styleBlockRe   = regexp.MustCompile(`(?s)<style[^>]*>(.*?)</style>`)
	inlineStyleRe  = regexp.MustCompile(`style\s*=\s*["']([^"']*)["']`)
	scriptBlockRe  = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	inlineOnAttrRe = regexp.MustCompile(`on\w+\s*=\s*["']([^"']*)["']`)
	fenceOpenRe    = regexp.MustCompile("```html\\s*")
	fenceCloseRe   = regexp.MustCompile("```\\s*$")
	blankLinesRe   = regexp.MustCompile(`\n\s*\n`)
)

// cleanHTML strips markdown fences the LLM tends to wrap output in and
// guarantees a DOCTYPE.
func cleanHTML(html string) string {
	html = fenceOpenRe.ReplaceAllString(html, "")
	html = fenceCloseRe.ReplaceAllString(html, "")
	html = blankLinesRe.ReplaceAllString(html, "\n")
	html = strings.TrimSpace(html)
	if !strings.HasPrefix(html, "<!DOCTYPE") {
		html = "<!DOCTYPE html>\n" + html
	}
	return html
}

// checkHTML runs the structural, CSS, and JS checks over a document.
func checkHTML(html string) checkResult {
	var r checkResult
	r.checkStructure(html)
	r.checkCSS(html)
	r.checkJS(html)
	return r
}

func (r *checkResult) issue(issue, fix string) {
	r.Issues = append(r.Issues, issue)
	r.Fixes = append(r.Fixes, fix)
}

func (r *checkResult) warn(warning, fix string) {
	r.Warnings = append(r.Warnings, warning)
	r.Fixes = append(r.Fixes, fix)
}

func (r *checkResult) checkStructure(html string) {
	if !strings.HasPrefix(strings.TrimSpace(html), "<!DOCTYPE html>") {
		r.issue("missing DOCTYPE declaration", "add <!DOCTYPE html> at the beginning")
	}
	if !strings.Contains(html, "<html") {
		r.issue("missing <html> tag", "add <html lang=\"en\">")
	}
	if !strings.Contains(html, "<head>") {
		r.issue("missing <head> section", "add <head> with meta tags")
	}
	if !strings.Contains(html, "charset=") {
		r.issue("missing charset declaration", "add <meta charset=\"UTF-8\">")
	}
	if !strings.Contains(html, "viewport") {
		r.issue("missing viewport meta tag", "add the responsive viewport meta tag")
	}
	if !strings.Contains(html, "<title>") {
		r.issue("missing <title> tag", "add a <title> for SEO")
	}
	if !strings.Contains(html, "<body") {
		r.issue("missing <body> tag", "add <body>")
	}
	if !strings.Contains(html, "</html>") {
		r.issue("missing closing </html> tag", "add closing </html>")
	}
}

func (r *checkResult) checkCSS(html string) {
	var blocks []string
	for _, m := range styleBlockRe.FindAllStringSubmatch(html, -1) {
		blocks = append(blocks, m[1])
	}
	for _, m := range inlineStyleRe.FindAllStringSubmatch(html, -1) {
		blocks = append(blocks, m[1])
	}
	css := strings.Join(blocks, "\n")
	if strings.TrimSpace(css) == "" {
		return
	}

	if open, closed := strings.Count(css, "{"), strings.Count(css, "}"); open != closed {
		r.issue(fmt.Sprintf("unmatched CSS braces: %d opening, %d closing", open, closed),
			"balance CSS rule braces")
	}
	if n := strings.Count(css, "!important"); n > 3 {
		r.warn(fmt.Sprintf("excessive use of !important (%d instances)", n),
			"reduce !important usage and improve specificity")
	}
	if !strings.Contains(css, "@media") && len(css) > 100 {
		r.warn("no media queries found", "add media queries for responsive design")
	}
}

func (r *checkResult) checkJS(html string) {
	var blocks []string
	for _, m := range scriptBlockRe.FindAllStringSubmatch(html, -1) {
		blocks = append(blocks, m[1])
	}
	for _, m := range inlineOnAttrRe.FindAllStringSubmatch(html, -1) {
		blocks = append(blocks, m[1])
	}
	js := strings.Join(blocks, "\n")
	if strings.TrimSpace(js) == "" {
		return
	}

	pairs := []struct {
		open, close string
		label       string
	}{
		{"(", ")", "parentheses"},
		{"[", "]", "brackets"},
		{"{", "}", "braces"},
	}
	for _, p := range pairs {
		if open, closed := strings.Count(js, p.open), strings.Count(js, p.close); open != closed {
			r.issue(fmt.Sprintf("unmatched %s: %d opening, %d closing", p.label, open, closed),
				fmt.Sprintf("balance %s", p.label))
		}
	}
	if strings.Contains(js, "eval(") {
		r.issue("eval() usage detected", "remove eval(), it is a security risk")
	}
	if strings.Contains(js, "var ") {
		r.warn("'var' declarations found", "prefer 'let' or 'const'")
	}
	if strings.Contains(js, "console.log") {
		r.warn("console.log statements found", "remove console.log before deployment")
	}
}
