package admin

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duellab/pdserver/internal/dispatch"
)

const refreshInterval = time.Second

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// statsModel is the read-only server-load view shown to an operator.
type statsModel struct {
	loop     *dispatch.Loop
	stats    dispatch.Stats
	width    int
	height   int
	quitting bool
}

func newStatsModel(loop *dispatch.Loop) statsModel {
	return statsModel{loop: loop, stats: loop.Stats()}
}

func (m statsModel) Init() tea.Cmd {
	return tickCmd()
}

func (m statsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.stats = m.loop.Stats()
		return m, tickCmd()
	}
	return m, nil
}

func (m statsModel) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).MarginBottom(1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(20)
	valueStyle := lipgloss.NewStyle().Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("DUEL SERVER — LIVE STATUS"))
	b.WriteString("\n")

	row := func(label string, value int) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", value)))
		b.WriteString("\n")
	}

	row("Connections", m.stats.Connections)
	row("Sessions", m.stats.Sessions)
	row("Matchmaking queue", m.stats.QueueLen)
	row("Private rooms", m.stats.PrivateRooms)
	row("Party lobbies", m.stats.Lobbies)
	row("Live matches", m.stats.LiveMatches)
	row("Live tournaments", m.stats.LiveTournaments)
	row("Offline write queue", m.stats.OfflineWriteQueue)

	b.WriteString(helpStyle.Render("refreshes every second · q/esc to disconnect"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
