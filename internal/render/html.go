// Package render turns the Markdown subset produced by the chat agents into
// HTML. The renderer is a pure function over the whole accumulated buffer of
// a turn: streaming callers re-run it on every received fragment, so partial
// syntax must never fail, only render as plain text until it completes.
package render

import (
	"regexp"
	"strings"
)

var (
	fenceRe     = regexp.MustCompile("```(\\w*)\\n?([\\s\\S]*?)```")
	separatorRe = regexp.MustCompile(`^\|[\s\-:|]+\|$`)
	inlineRe    = regexp.MustCompile("`([^`]+)`")
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	h4Re        = regexp.MustCompile(`(?m)^#### (.+)$`)
	h3Re        = regexp.MustCompile(`(?m)^### (.+)$`)
	h2Re        = regexp.MustCompile(`(?m)^## (.+)$`)
	bulletRe    = regexp.MustCompile(`(?m)^[•\-*] (.+)$`)
	orderedRe   = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	brBeforeH   = regexp.MustCompile(`<br>(<h[2-4]>)`)
	brAfterH    = regexp.MustCompile(`(</h[2-4]>)<br>`)
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces the three HTML metacharacters &, < and >.
func Escape(s string) string { return escaper.Replace(s) }

// HTML renders text into the supported HTML subset: fenced code blocks,
// tables, inline code, bold, h2-h4 headings, list items and line breaks.
// Stages run in a fixed order; each one assumes the output shape of the
// previous stage.
func HTML(text string) string {
	html := codeBlocks(text)
	html = tables(html)

	html = inlineRe.ReplaceAllString(html, "<code>${1}</code>")
	html = boldRe.ReplaceAllString(html, "<strong>${1}</strong>")

	// longest marker first so ### is never read as ##
	html = h4Re.ReplaceAllString(html, "<h4>${1}</h4>")
	html = h3Re.ReplaceAllString(html, "<h3>${1}</h3>")
	html = h2Re.ReplaceAllString(html, "<h2>${1}</h2>")

	// list items are intentionally left without a <ul>/<ol> container
	html = bulletRe.ReplaceAllString(html, "<li>${1}</li>")
	html = orderedRe.ReplaceAllString(html, "<li>${1}</li>")

	html = strings.ReplaceAll(html, "\n", "<br>")

	html = brBeforeH.ReplaceAllString(html, "${1}")
	html = brAfterH.ReplaceAllString(html, "${1}")
	return html
}

// codeBlocks extracts closed ``` fences into <pre><code> blocks and escapes
// everything between them. Only blocks produced here skip escaping; literal
// "<pre><code>" typed into the text is escaped like any other text.
// An unterminated fence is left in place as ordinary escaped text.
func codeBlocks(text string) string {
	matches := fenceRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return Escape(text)
	}
	var b strings.Builder
	b.Grow(len(text) + 32*len(matches))
	last := 0
	for _, m := range matches {
		b.WriteString(Escape(text[last:m[0]]))
		body := text[m[4]:m[5]]
		b.WriteString("<pre><code>")
		b.WriteString(strings.TrimSpace(Escape(body)))
		b.WriteString("</code></pre>")
		last = m[1]
	}
	b.WriteString(Escape(text[last:]))
	return b.String()
}
