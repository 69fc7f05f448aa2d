package bubbletea_test

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/aira"
	bt "github.com/fwojciec/aira/bubbletea"
	"github.com/fwojciec/aira/markdown"
	"github.com/fwojciec/aira/mock"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// plain strips escape sequences and trailing padding from each line.
func plain(s string) string {
	lines := strings.Split(ansi.ReplaceAllString(s, ""), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// newController returns a controller whose turns stream the given events.
func newController(events ...aira.Event) *aira.Controller {
	tr := &mock.Transport{
		StreamFn: func(ctx context.Context, req aira.Request) (aira.Stream, error) {
			return mock.Events(events...), nil
		},
	}
	return aira.NewController(tr, func() aira.Renderer {
		return markdown.New(markdown.WithWindow(0))
	}, aira.WithLogger(discardLogger()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, ctrl bt.Controller) bt.Model {
	t.Helper()
	return initModelWithSize(t, ctrl, 80, 24)
}

// initModelWithSize creates a model with a custom terminal size.
func initModelWithSize(t *testing.T, ctrl bt.Controller, width, height int) bt.Model {
	t.Helper()
	m := bt.New(ctrl, aira.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// submit types text and presses Enter without running the returned command.
func submit(t *testing.T, m bt.Model, text string) bt.Model {
	t.Helper()
	m.Input.SetValue(text)
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}
