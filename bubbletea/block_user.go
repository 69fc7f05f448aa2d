package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock renders a user message with a "> " prompt. Wrapped
// lines are indented under the message text.
type UserMessageBlock struct {
	text   string
	styles Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(text string, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{text: text, styles: styles}
}

func (b *UserMessageBlock) View(width int) string {
	const prompt = "> "
	wrapped := lipgloss.NewStyle().Width(max(width-len(prompt), 1)).Render(b.text)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		if i == 0 {
			lines[i] = b.styles.UserMsg.Render(prompt) + line
		} else {
			lines[i] = strings.Repeat(" ", len(prompt)) + line
		}
	}
	return strings.Join(lines, "\n")
}
