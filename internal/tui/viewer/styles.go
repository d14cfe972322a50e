// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     viewer
// Description: Styles for the command viewer TUI
// Author:      Mike Stoffels
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package viewer

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorAccent    = lipgloss.Color("#F59E0B") // Amber
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorBgPanel = lipgloss.Color("#1E293B") // Slate 800

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
	ColorTextDim   = lipgloss.Color("#64748B") // Slate 500
)

// Command styles
var (
	IndexStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	SentinelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	NameStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	BasicParamStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	CompositeNameStyle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true)

	CompositeValueStyle = lipgloss.NewStyle().
				Foreground(ColorAccent)

	ParseErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	NearStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// Panel styles
var (
	ListPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	TitlePanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// Status and help styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorBgPanel).
			Foreground(ColorText).
			Padding(0, 1)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	FilterActiveStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Title shown in the header
const Title = "koi viewer"

// RenderKeyHint renders a keyboard shortcut hint
func RenderKeyHint(key, description string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(description)
}
