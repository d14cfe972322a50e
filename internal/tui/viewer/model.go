// ============================================================================
// koi - KoiLang command parser
// ============================================================================
//
// Package:     viewer
// Description: Bubbletea model listing the parsed commands of a file
// Author:      Mike Stoffels
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package viewer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/foundation/koi/input"
	"github.com/msto63/koi/foundation/koi/parser"
	"github.com/msto63/koi/pkg/core/version"
)

// Options configures how the viewed file is read and parsed
type Options struct {
	Parser   parser.Options
	Encoding string
}

// DefaultOptions returns UTF-8 input with the default parser options
func DefaultOptions() Options {
	return Options{Parser: parser.DefaultOptions(), Encoding: "utf-8"}
}

// Model is the main Bubbletea model for the viewer
type Model struct {
	// State
	width      int
	height     int
	ready      bool
	loading    bool
	errorsOnly bool
	err        error

	// Components
	viewport viewport.Model
	spinner  spinner.Model

	// Parse state
	items []item
	stats parser.Stats

	path string
	opts Options
}

// New creates a viewer for the file at path
func New(path string, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		spinner: sp,
		loading: true,
		path:    path,
		opts:    opts,
	}
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Title panel
		footerHeight := 3 // Status bar + help
		viewportHeight := msg.Height - headerHeight - footerHeight - 2
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.items
			m.stats = msg.stats
		}
		m.updateViewportContent()
		m.viewport.GotoTop()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "e":
		m.errorsOnly = !m.errorsOnly
		m.updateViewportContent()
		m.viewport.GotoTop()

	case "r":
		if !m.loading {
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load)
		}

	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "pgdown", " ":
		m.viewport.ViewDown()
	case "pgup":
		m.viewport.ViewUp()
	case "g", "home":
		m.viewport.GotoTop()
	case "G", "end":
		m.viewport.GotoBottom()
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading viewer..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(ListPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		TitleStyle.Render(Title),
		strings.Repeat(" ", 3),
		PathStyle.Render(m.path),
	)
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.loading:
		left = m.spinner.View() + " Parsing..."
	case m.err != nil:
		left = StatusErrorStyle.Render("load failed")
	case m.stats.Errors > 0:
		left = StatusErrorStyle.Render(fmt.Sprintf("%d commands, %d errors", m.stats.Commands, m.stats.Errors))
	default:
		left = StatusOKStyle.Render(fmt.Sprintf("%d commands", m.stats.Commands))
	}

	if m.errorsOnly {
		left += "  " + FilterActiveStyle.Render("[errors only]")
	}

	right := HelpDescStyle.Render(fmt.Sprintf("threshold %d  v%s", m.opts.Parser.CommandThreshold, version.Version))

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if padding < 2 {
		padding = 2
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", padding) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("j/k", "Scroll"),
		RenderKeyHint("g/G", "Top/Bottom"),
		RenderKeyHint("e", "Errors only"),
		RenderKeyHint("r", "Reload"),
		RenderKeyHint("q", "Quit"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

// updateViewportContent renders the visible rows into the viewport
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	if m.err != nil {
		m.viewport.SetContent(ParseErrorStyle.Render(m.err.Error()))
		return
	}

	var content strings.Builder
	n := 0
	for _, it := range m.items {
		if it.cmd != nil {
			n++
			if m.errorsOnly {
				continue
			}
			content.WriteString(IndexStyle.Render(fmt.Sprintf("%4d ", n)))
			content.WriteString(renderCommand(it.cmd))
		} else {
			content.WriteString(renderParseError(it.err))
		}
		content.WriteString("\n")
	}

	if content.Len() == 0 {
		content.WriteString(HelpDescStyle.Render("no commands"))
	}
	m.viewport.SetContent(content.String())
}

func renderCommand(cmd *command.Command) string {
	var b strings.Builder
	b.WriteString(SentinelStyle.Render("#"))
	b.WriteString(NameStyle.Render(cmd.Name()))
	for _, p := range cmd.Params() {
		b.WriteString(" ")
		if name, value, ok := p.AsComposite(); ok {
			b.WriteString(CompositeNameStyle.Render(name))
			b.WriteString("(" + CompositeValueStyle.Render(value) + ")")
			continue
		}
		b.WriteString(BasicParamStyle.Render(p.Raw()))
	}
	return b.String()
}

func renderParseError(err *parser.ParseError) string {
	line := ParseErrorStyle.Render(fmt.Sprintf("  !! line %d:%d %s", err.Line, err.Column, err.Message))
	if err.Near != "" {
		line += " " + NearStyle.Render("near '"+err.Near+"'")
	}
	return line
}

// load reads and parses the file
func (m Model) load() tea.Msg {
	text, err := input.ReadFile(m.path, m.opts.Encoding)
	if err != nil {
		return loadedMsg{err: err}
	}

	p, err := parser.New(text, m.opts.Parser)
	if err != nil {
		return loadedMsg{err: err}
	}

	var items []item
	for cmd, perr := range p.All() {
		if perr != nil {
			var pe *parser.ParseError
			if errors.As(perr, &pe) {
				items = append(items, item{err: pe})
			}
			continue
		}
		items = append(items, item{cmd: cmd})
	}
	return loadedMsg{items: items, stats: p.Stats()}
}

// Run starts the viewer TUI
func Run(path string, opts Options) error {
	p := tea.NewProgram(New(path, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
