package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ MessageBlock = (*FailureBlock)(nil)

// FailureBlock renders the user-visible failure message of a failed turn,
// with the underlying cause on a second, muted line.
type FailureBlock struct {
	message string
	cause   error
	styles  Styles
}

// NewFailureBlock creates a FailureBlock. cause may be nil.
func NewFailureBlock(message string, cause error, styles Styles) *FailureBlock {
	return &FailureBlock{message: message, cause: cause, styles: styles}
}

func (b *FailureBlock) View(width int) string {
	content := b.styles.Error.Render(b.message)
	if b.cause != nil {
		content += "\n" + b.styles.Muted.Render(b.cause.Error())
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
