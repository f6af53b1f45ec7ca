// Package watch is a terminal dashboard over a running nixgw instance. It
// polls the HTTP API and renders gateway health plus recently archived logs.
package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 2 * time.Second

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	health    healthMsg
	connected bool
	lastError string

	logs table.Model
}

// New creates a new watch TUI model.
func New(apiURL, apiKey string) *Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Time", Width: 24},
		{Title: "Exit", Width: 5},
		{Title: "Command", Width: 60},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	return &Model{
		apiURL: apiURL,
		apiKey: apiKey,
		logs:   t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
		func() tea.Msg { return fetchLogs(m.apiURL, m.apiKey) },
		tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Height > 10 {
			m.logs.SetHeight(msg.Height - 8)
		}

	case tickMsg:
		return m, tea.Batch(
			func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
			func() tea.Msg { return fetchLogs(m.apiURL, m.apiKey) },
			tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) }),
		)

	case healthMsg:
		m.health = msg
		m.connected = true
		m.lastError = ""

	case logsMsg:
		rows := make([]table.Row, 0, len(msg.Logs))
		for _, l := range msg.Logs {
			rows = append(rows, table.Row{
				l.ID,
				l.Timestamp,
				fmt.Sprintf("%d", l.ExitCode),
				l.Command,
			})
		}
		m.logs.SetRows(rows)

	case errMsg:
		m.connected = false
		m.lastError = msg.Error()
	}

	var cmd tea.Cmd
	m.logs, cmd = m.logs.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to nixgw..."
	}

	title := titleStyle.Render("nixgw watch")

	var status string
	if m.connected {
		status = okStyle.Render(fmt.Sprintf(
			"● %s  uptime %ds  logs %d  ops %d",
			m.health.Status, m.health.UptimeSeconds, m.health.LogsStored, m.health.Operations,
		))
	} else {
		status = errStyle.Render("○ disconnected")
	}

	parts := []string{title, status, m.logs.View()}
	if m.lastError != "" {
		parts = append(parts, errStyle.Render("⚠ "+m.lastError))
	}
	parts = append(parts, helpStyle.Render("[q] Quit • [↑/↓] Scroll logs"))

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
