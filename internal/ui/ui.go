// Package ui renders terminal output: status glyphs and change badges.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/staging"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)

	newBadge      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	modifiedBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	deletedBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Strikethrough(true)
)

// colorEnabled is detected once; plain output when the terminal has no
// color support or output is piped.
var colorEnabled = termenv.DefaultOutput().Profile != termenv.Ascii

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// RenderPass renders a success glyph or message.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn renders a warning glyph or message.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderError renders an error glyph or message.
func RenderError(s string) string { return render(errorStyle, s) }

// RenderAccent renders an accented glyph or message.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderDim renders de-emphasized text.
func RenderDim(s string) string { return render(dimStyle, s) }

// Badge renders the staged-status badge shown next to entity names.
func Badge(status staging.Status) string {
	switch status {
	case staging.StatusNew:
		return render(newBadge, "[new]")
	case staging.StatusModified:
		return render(modifiedBadge, "[modified]")
	case staging.StatusDeleted:
		return render(deletedBadge, "[deleted]")
	default:
		return ""
	}
}

// OperationGlyph renders the one-character marker for a change operation.
func OperationGlyph(op staging.Operation) string {
	switch op {
	case staging.OpCreate:
		return RenderPass("+")
	case staging.OpDelete:
		return RenderError("-")
	default:
		return RenderWarn("~")
	}
}
