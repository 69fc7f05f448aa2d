package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fwojciec/aira"
	"github.com/fwojciec/aira/chroma"
	"github.com/fwojciec/aira/config"
	airahttp "github.com/fwojciec/aira/http"
	"github.com/fwojciec/aira/markdown"
)

// newController wires the HTTP transport and the markdown renderer into a
// controller according to cfg. A nil logger keeps the controller default.
func newController(cfg *config.Config, logger *slog.Logger) (*aira.Controller, error) {
	opts, err := cfg.ControllerOptions()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		opts = append(opts, aira.WithLogger(logger))
	}

	transport := airahttp.New(
		airahttp.WithBaseURL(cfg.URL),
		airahttp.WithTimeout(cfg.Timeout),
	)
	return aira.NewController(transport, newRendererFunc(cfg), opts...), nil
}

// newRendererFunc returns the per-turn renderer factory. The highlighter is
// shared across turns.
func newRendererFunc(cfg *config.Config) func() aira.Renderer {
	ropts := []markdown.Option{markdown.WithWindow(cfg.Debounce)}
	if cfg.Cursor {
		ropts = append(ropts, markdown.WithCursor(markdown.DefaultCursor))
	}
	if cfg.Highlight {
		ropts = append(ropts, markdown.WithHighlighter(chroma.New(chroma.WithStyle(cfg.HighlightStyle))))
	}
	return func() aira.Renderer {
		return markdown.New(ropts...)
	}
}

// newLogger returns a text logger writing to path, or to fallback when path
// is empty. With neither, it returns nil.
func newLogger(path string, fallback io.Writer) (*slog.Logger, func(), error) {
	if path == "" {
		if fallback == nil {
			return nil, func() {}, nil
		}
		return slog.New(slog.NewTextHandler(fallback, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}
