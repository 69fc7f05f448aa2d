package goldmark

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/aira"
	"github.com/fwojciec/aira/markdown"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type ansiRenderer struct {
	bold   lipgloss.Style
	italic lipgloss.Style
	label  lipgloss.Style
	gutter lipgloss.Style
	code   lipgloss.Style
}

func newRenderer(theme aira.Theme) *ansiRenderer {
	return &ansiRenderer{
		bold:   lipgloss.NewStyle().Bold(true),
		italic: lipgloss.NewStyle().Italic(true),
		label:  lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)),
		gutter: lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		code:   lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// newParser returns a parser limited to fenced code blocks, paragraphs and
// emphasis. Headings, lists, links and the rest stay literal text.
func newParser() parser.Parser {
	return parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)
}

func (r *ansiRenderer) render(source []byte, width int) string {
	doc := newParser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderBlock(c, source, width, &buf)
		if c.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (r *ansiRenderer) renderBlock(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		inline := r.collectInline(n, source)
		for _, line := range strings.Split(inline, "\n") {
			buf.WriteString(lipgloss.NewStyle().Width(width).Render(line))
			buf.WriteString("\n")
		}

	case *ast.FencedCodeBlock:
		lang := string(n.Language(source))
		if lang == "" {
			lang = markdown.DefaultLanguage
		}
		buf.WriteString(r.label.Render(lang))
		buf.WriteString("\n")
		gutter := r.gutter.Render("│") + " "
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content := strings.TrimRight(string(line.Value(source)), "\n")
			buf.WriteString(gutter + r.code.Render(content))
			buf.WriteString("\n")
		}

	default:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}
	}
}

// collectInline collects styled inline text from a node's children. Soft
// line breaks are kept as newlines.
func (r *ansiRenderer) collectInline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (r *ansiRenderer) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.collectInline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderInline(c, source, buf)
		}
	}
}
