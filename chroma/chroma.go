// Package chroma implements aira.Highlighter using the chroma syntax
// highlighter. Output is class-based HTML without a surrounding pre element,
// so it can be placed inside the renderer's code container.
package chroma

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fwojciec/aira"
)

// DefaultStyle is the style used for the stylesheet when none is configured.
const DefaultStyle = "monokai"

// Interface compliance check.
var _ aira.Highlighter = (*Highlighter)(nil)

// Highlighter highlights code blocks. It is safe for concurrent use.
type Highlighter struct {
	style     *chroma.Style
	formatter *html.Formatter

	mu     sync.RWMutex
	lexers map[string]chroma.Lexer
}

// Option configures a [Highlighter].
type Option func(*Highlighter)

// WithStyle selects a chroma style by name. Unknown names fall back to the
// chroma default.
func WithStyle(name string) Option {
	return func(h *Highlighter) {
		h.style = styles.Get(name)
	}
}

// New creates a Highlighter.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{
		style:     styles.Get(DefaultStyle),
		formatter: html.New(html.WithClasses(true), html.PreventSurroundingPre(true)),
		lexers:    make(map[string]chroma.Lexer),
	}
	for _, o := range opts {
		o(h)
	}
	if h.style == nil {
		h.style = styles.Fallback
	}
	return h
}

// Highlight returns code as escaped HTML with token spans. Languages chroma
// does not know are highlighted as plain text.
func (h *Highlighter) Highlight(code, language string) (string, error) {
	iterator, err := h.lexer(language).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("chroma: tokenise %s: %w", language, err)
	}
	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("chroma: format: %w", err)
	}
	return buf.String(), nil
}

// WriteCSS writes the stylesheet for the configured style.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}

// lexer returns the cached lexer for language. lexers.Get walks the whole
// registry on a miss, so results are cached per language.
func (h *Highlighter) lexer(language string) chroma.Lexer {
	key := strings.ToLower(language)
	h.mu.RLock()
	l, ok := h.lexers[key]
	h.mu.RUnlock()
	if ok {
		return l
	}

	l = lexers.Get(key)
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	h.mu.Lock()
	h.lexers[key] = l
	h.mu.Unlock()
	return l
}
