// Package styles provides shared lipgloss styles for CLI output.
package styles

import "github.com/charmbracelet/lipgloss"

// Semantic palette colors.
var (
	ColorPrimary   = lipgloss.Color("#7aa2f7")
	ColorSecondary = lipgloss.Color("#7dcfff")
	ColorMuted     = lipgloss.Color("#565f89")
	ColorSuccess   = lipgloss.Color("#9ece6a")
	ColorWarning   = lipgloss.Color("#e0af68")
	ColorError     = lipgloss.Color("#f7768e")
)

// Shared styles for command output.
var (
	Title   = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	Header  = lipgloss.NewStyle().Foreground(ColorSecondary)
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error   = lipgloss.NewStyle().Foreground(ColorError)
	Muted   = lipgloss.NewStyle().Foreground(ColorMuted)

	DiffAdd     = lipgloss.NewStyle().Foreground(ColorSuccess)
	DiffRemove  = lipgloss.NewStyle().Foreground(ColorError)
	DiffHunk    = lipgloss.NewStyle().Foreground(ColorSecondary)
	DiffContext = lipgloss.NewStyle()
)
