// Package ux provides terminal output styling for the abeval CLI.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorAccent  = lipgloss.Color("#20B9B4")
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1),
}

// Status icons.
const (
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconError   = "✗"
)

// Successf prints a styled success line to w.
func Successf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Success.Render(IconSuccess)+" "+fmt.Sprintf(format, args...))
}

// Warnf prints a styled warning line to w.
func Warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Warning.Render(IconWarning+" Warning:")+" "+fmt.Sprintf(format, args...))
}

// Errorf prints a styled error line to w.
func Errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Styles.Error.Render(IconError+" Error:")+" "+fmt.Sprintf(format, args...))
}
