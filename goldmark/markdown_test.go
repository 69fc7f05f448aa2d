package goldmark_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/aira"
	"github.com/fwojciec/aira/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// plain strips escape sequences and the padding lipgloss adds to each line.
func plain(s string) string {
	lines := strings.Split(ansi.ReplaceAllString(s, ""), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

func TestMain(m *testing.M) {
	// Force ANSI output so styled text differs from plain text.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := aira.DefaultTheme()

	t.Run("empty input returns empty string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", goldmark.Render("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", plain(goldmark.Render("hello world", 80, theme)))
	})

	t.Run("bold and italic are styled", func(t *testing.T) {
		t.Parallel()
		styled := goldmark.Render("**bold** and *italic*", 80, theme)
		assert.Equal(t, "bold and italic", plain(styled))
		assert.NotEqual(t, plain(styled), styled)
	})

	t.Run("keeps single line breaks", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "one\ntwo", plain(goldmark.Render("one\ntwo", 80, theme)))
	})

	t.Run("separates paragraphs with a blank line", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "first\n\nsecond", plain(goldmark.Render("first\n\nsecond", 80, theme)))
	})

	t.Run("headings and lists stay literal", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "# Title\n- one\n- two", plain(goldmark.Render("# Title\n- one\n- two", 80, theme)))
	})

	t.Run("fenced code block shows language and content", func(t *testing.T) {
		t.Parallel()
		got := plain(goldmark.Render("```go\nfmt.Println(\"*x*\")\n```", 20, theme))
		assert.Equal(t, "go\n│ fmt.Println(\"*x*\")", got)
	})

	t.Run("fenced code block defaults to python", func(t *testing.T) {
		t.Parallel()
		got := plain(goldmark.Render("```\nprint(1)\n```", 80, theme))
		assert.True(t, strings.HasPrefix(got, "python\n"))
	})

	t.Run("unclosed fence renders as code", func(t *testing.T) {
		t.Parallel()
		got := plain(goldmark.Render("intro\n\n```sh\nls -la", 80, theme))
		assert.Equal(t, "intro\n\nsh\n│ ls -la", got)
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		long := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12"
		got := plain(goldmark.Render(long, 30, theme))
		assert.Contains(t, got, "word1")
		assert.Contains(t, got, "word12")
		assert.Greater(t, len(strings.Split(got, "\n")), 1)
	})

	t.Run("width zero defaults", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hi", plain(goldmark.Render("hi", 0, theme)))
	})
}
