// Package markdown renders streamed assistant text into flat, HTML-safe
// markup. Only fenced code blocks, bold and italic are recognized.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/fwojciec/aira"
)

const (
	// Fence delimits a code block.
	Fence = "```"
	// DefaultLanguage tags code blocks opened without a language.
	DefaultLanguage = "python"
	// LineBreak replaces newlines outside code blocks.
	LineBreak = "<br>"
	// DefaultCursor is the streaming cursor markup.
	DefaultCursor = `<span class="cursor">|</span>`
)

var (
	escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	bold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italic  = regexp.MustCompile(`\*([^*\n]+?)\*`)
)

// Render transforms the whole of text into markup. It is a pure function:
// the same text always yields the same markup.
func Render(text string) string {
	return render(text, "", nil)
}

// render applies, in order: escaping of &, < and >; fenced code blocks;
// bold and italic outside code; line breaks outside code. cursor, when not
// empty, is placed at the true end of the rendered text. hl, when not nil,
// highlights code block contents.
func render(text, cursor string, hl aira.Highlighter) string {
	escaped := escaper.Replace(text)

	var b strings.Builder
	b.Grow(len(escaped) + len(escaped)/4)
	rest := escaped
	for {
		i := strings.Index(rest, Fence)
		if i < 0 {
			b.WriteString(prose(rest))
			b.WriteString(cursor)
			return b.String()
		}
		b.WriteString(prose(rest[:i]))

		lang, body := openFence(rest[i+len(Fence):])
		j := strings.Index(body, Fence)
		if j < 0 {
			writeCode(&b, lang, body, cursor, hl)
			return b.String()
		}
		writeCode(&b, lang, body[:j], "", hl)
		rest = body[j+len(Fence):]
	}
}

// prose renders text outside code blocks.
func prose(s string) string {
	if s == "" {
		return ""
	}
	s = bold.ReplaceAllString(s, "<strong>$1</strong>")
	s = italic.ReplaceAllString(s, "<em>$1</em>")
	return strings.ReplaceAll(s, "\n", LineBreak)
}

// openFence splits the text after an opening fence into its language tag and
// the code that follows. A tag is only recognized when a newline or the end
// of the text follows it; the newline is consumed. Otherwise the same-line
// text is code.
func openFence(s string) (lang, body string) {
	n := 0
	for n < len(s) && isLangByte(s[n]) {
		n++
	}
	switch {
	case n == len(s):
		return s, ""
	case s[n] == '\n':
		return s[:n], s[n+1:]
	default:
		return "", s
	}
}

func isLangByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '_' || c == '+' || c == '#' || c == '.' || c == '-'
}

// writeCode emits the code block container. code is already escaped.
func writeCode(b *strings.Builder, lang, code, cursor string, hl aira.Highlighter) {
	if lang == "" {
		lang = DefaultLanguage
	}
	code = strings.TrimSpace(code)
	if hl != nil && code != "" {
		if highlighted, err := hl.Highlight(html.UnescapeString(code), lang); err == nil {
			code = highlighted
		}
	}
	b.WriteString(`<div class="code-block"><button class="copy-btn">Copy</button><pre><code class="language-`)
	b.WriteString(lang)
	b.WriteString(`">`)
	b.WriteString(code)
	b.WriteString(cursor)
	b.WriteString(`</code></pre></div>`)
}

// CountFences returns the number of fence markers in s.
func CountFences(s string) int {
	return strings.Count(s, Fence)
}

// hasUnclosedFence reports whether s ends inside a code block.
func hasUnclosedFence(s string) bool {
	return CountFences(s)%2 == 1
}
