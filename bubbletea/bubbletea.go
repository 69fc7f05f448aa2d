// Package bubbletea provides a Bubble Tea chat TUI driven by an
// aira.Controller.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/aira"
)

// Controller runs turns for the TUI. *aira.Controller implements it.
type Controller interface {
	Run(ctx context.Context, message string, onUpdate func(aira.Update)) (aira.Turn, error)
	Cancel() bool
	Session() aira.Session
}

// Interface compliance check.
var _ Controller = (*aira.Controller)(nil)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// UpdateMsg delivers an observable render of the in-flight turn.
type UpdateMsg struct {
	Update aira.Update
}

// TurnDoneMsg signals that the in-flight turn reached a terminal state.
type TurnDoneMsg struct {
	Turn aira.Turn
	Err  error
}
