package bubbletea

import (
	"strings"

	"github.com/fwojciec/aira"
	"github.com/fwojciec/aira/goldmark"
	"github.com/fwojciec/aira/markdown"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// Cursor trails the text of a streaming turn.
const Cursor = "▍"

// AssistantBlock renders a turn's accumulated response text. Paragraphs
// that can no longer change (before the last blank line outside a code
// block) are rendered once per width and cached; only the trailing text is
// re-rendered on each update.
type AssistantBlock struct {
	theme  aira.Theme
	styles Styles

	text      string
	streaming bool
	canceled  bool

	// finalizedRaw is the stable prefix ending at the last blank line.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantBlock creates a block for a streaming turn.
func NewAssistantBlock(theme aira.Theme, styles Styles) *AssistantBlock {
	return &AssistantBlock{
		theme:            theme,
		styles:           styles,
		streaming:        true,
		finalizedByWidth: make(map[int]string),
	}
}

// SetText replaces the accumulated text. Text normally only grows; anything
// else drops the cache.
func (b *AssistantBlock) SetText(text string) {
	if !strings.HasPrefix(text, b.finalizedRaw) {
		b.finalizedRaw = ""
		clear(b.finalizedByWidth)
	}
	b.text = text
	b.promoteFinalized()
}

// Finish sets the final text and removes the cursor. A canceled turn is
// marked as such.
func (b *AssistantBlock) Finish(text string, canceled bool) {
	b.SetText(text)
	b.streaming = false
	b.canceled = canceled
}

func (b *AssistantBlock) View(width int) string {
	view := b.renderText(width)
	if b.streaming {
		// Keep the cursor next to the text rather than after the padding.
		view = strings.TrimRight(view, " ") + b.styles.Status.Render(Cursor)
	}
	if b.canceled {
		if view != "" {
			view += "\n"
		}
		view += b.styles.Muted.Render("(canceled)")
	}
	return view
}

func (b *AssistantBlock) renderText(width int) string {
	finalized := b.renderFinalized(width)
	trailing := strings.TrimPrefix(b.text, b.finalizedRaw)
	if strings.TrimSpace(trailing) == "" {
		return finalized
	}
	rendered := goldmark.Render(trailing, width, b.theme)
	if finalized == "" {
		return rendered
	}
	// The blank line is consumed by the finalized prefix; rebuild it so the
	// seam matches a full-document render.
	return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promoteFinalized moves the stable prefix to the last "\n\n" that is not
// inside a code block. Only the text after the current prefix is scanned.
func (b *AssistantBlock) promoteFinalized() {
	tail := b.text[len(b.finalizedRaw):]
	for end := len(tail); ; {
		idx := strings.LastIndex(tail[:end], "\n\n")
		if idx < 0 {
			return
		}
		if markdown.CountFences(tail[:idx+2])%2 == 0 {
			if candidate := b.finalizedRaw + tail[:idx+2]; strings.TrimSpace(candidate) != "" {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.finalizedRaw, width, b.theme)
	b.finalizedByWidth[width] = rendered
	return rendered
}
