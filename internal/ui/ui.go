// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/staranto/showcase/internal/projects"
)

// SkeletonCount is the number of placeholder cards shown while loading.
const SkeletonCount = 3

const (
	cardWidth      = 34
	defaultWidth   = 80
	defaultRecheck = 30 * time.Second
)

// Facade is the part of projects.Service the view needs.
type Facade interface {
	Projects(ctx context.Context) projects.Result
	Refresh(ctx context.Context) projects.Result
	Subscribe(fn func(projects.Result)) (unsubscribe func())
}

// ResultMsg carries a new facade result into the program.
type ResultMsg projects.Result

type recheckMsg struct{}

var (
	heroStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f6be00")).
			MarginBottom(1)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00c8f0")).
			Padding(0, 1).
			Width(cardWidth)
	skeletonStyle = cardStyle.BorderForeground(lipgloss.Color("#444444")).
			Foreground(lipgloss.Color("#444444"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Model is the bubbletea model of the card grid.
type Model struct {
	ctx     context.Context
	svc     Facade
	spinner spinner.Model
	result  projects.Result
	width   int
	title   string
	recheck time.Duration
	now     func() time.Time
}

type Option func(*Model)

// WithTitle sets the hero banner text.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithRecheck sets how often the view asks the facade for data again. Asking
// is cheap; a fetch only happens when the data has gone stale.
func WithRecheck(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.recheck = d
		}
	}
}

// WithClock overrides time.Now for the status line.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

func New(ctx context.Context, svc Facade, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		svc:     svc,
		spinner: s,
		result:  projects.Result{Loading: true},
		width:   defaultWidth,
		title:   "Projects",
		recheck: defaultRecheck,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load, m.scheduleRecheck())
}

func (m Model) load() tea.Msg {
	return ResultMsg(m.svc.Projects(m.ctx))
}

func (m Model) refresh() tea.Msg {
	return ResultMsg(m.svc.Refresh(m.ctx))
}

func (m Model) scheduleRecheck() tea.Cmd {
	return tea.Tick(m.recheck, func(time.Time) tea.Msg { return recheckMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.result.Fetching = true
			return m, m.refresh
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ResultMsg:
		m.result = projects.Result(msg)
	case recheckMsg:
		return m, tea.Batch(m.load, m.scheduleRecheck())
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(heroStyle.Render(m.title))
	b.WriteString("\n")

	switch {
	case m.result.Loading:
		cards := make([]string, 0, SkeletonCount)
		for range SkeletonCount {
			cards = append(cards, skeletonCard(m.spinner.View()))
		}
		b.WriteString(m.grid(cards))
	case len(m.result.Projects) == 0:
		b.WriteString(subtleStyle.Render("No projects to show."))
	default:
		cards := make([]string, 0, len(m.result.Projects))
		for _, p := range m.result.Projects {
			cards = append(cards, card(p.Title, p.URL, p.Img))
		}
		b.WriteString(m.grid(cards))
	}

	b.WriteString("\n\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("r refresh • q quit"))
	b.WriteString("\n")

	return b.String()
}

// grid lays cards out left to right, wrapping to fit the terminal width.
func (m Model) grid(cards []string) string {
	perRow := max(1, m.width/(cardWidth+4))

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) status() string {
	var parts []string

	switch {
	case m.result.Loading:
		parts = append(parts, m.spinner.View()+" loading projects")
	case !m.result.UpdatedAt.IsZero():
		parts = append(parts, fmt.Sprintf("%d projects, updated %s",
			len(m.result.Projects), humanize.RelTime(m.result.UpdatedAt, m.now(), "ago", "from now")))
	}
	if m.result.Fetching && !m.result.Loading {
		parts = append(parts, m.spinner.View()+" refreshing")
	}
	if m.result.Err != nil {
		parts = append(parts, errStyle.Render("last refresh failed: "+m.result.Err.Error()))
	}

	return strings.Join(parts, " • ")
}

func card(title, url, img string) string {
	if title == "" {
		title = "(untitled)"
	}
	if url == "" {
		url = "-"
	}
	image := subtleStyle.Render("no image")
	if img != "" {
		image = img
	}
	return cardStyle.Render(strings.Join([]string{
		titleStyle.Render(title),
		url,
		image,
	}, "\n"))
}

func skeletonCard(spin string) string {
	bar := strings.Repeat("░", cardWidth-4)
	return skeletonStyle.Render(strings.Join([]string{
		spin + " " + strings.Repeat("░", cardWidth-7),
		bar,
		bar,
	}, "\n"))
}

// Run starts the interactive view and blocks until the user quits. Every
// transition of the projects entry is pushed into the program.
func Run(ctx context.Context, svc Facade, opts ...Option) error {
	p := tea.NewProgram(New(ctx, svc, opts...), tea.WithContext(ctx), tea.WithAltScreen())

	unsubscribe := svc.Subscribe(func(r projects.Result) {
		p.Send(ResultMsg(r))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}
