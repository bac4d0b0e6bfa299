// Package tui renders calendars and booking summaries for the terminal.
package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// renderWidth caps glamour's word wrap so summaries stay readable in wide
// terminals.
const renderWidth = 80

// NewRenderer returns a function that renders markdown using glamour.
// When stdout is not a terminal the markdown passes through unchanged, so
// piped and redirected output stays grep-friendly.
func NewRenderer() func(string) (string, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return PlainRenderer()
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return PlainRenderer()
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns markdown unchanged.
func PlainRenderer() func(string) (string, error) {
	return func(markdown string) (string, error) {
		return markdown, nil
	}
}
