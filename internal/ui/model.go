// ABOUTME: Bubbletea model for the cue monitor TUI
// ABOUTME: Shows engine state and a live feed of engine events
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/soundcue/soundcue-go/pkg/cue"
)

// maxFeed is how many recent events the feed keeps
const maxFeed = 12

// Model represents the monitor state
type Model struct {
	url       string
	connected bool
	lastErr   string

	// Engine state from state events
	state *cue.Status

	// Event counters
	plays  int
	stops  int
	loads  int
	errors int

	// Recent event feed, newest last
	feed []cue.Event

	width  int
	height int
}

// NewModel creates a monitor model for a tap URL
func NewModel(url string) Model {
	return Model{url: url}
}

// ConnMsg reports tap connection changes
type ConnMsg struct {
	Connected bool
	Err       string
}

// EventMsg carries one engine event from the tap
type EventMsg cue.Event

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case ConnMsg:
		m.connected = msg.Connected
		m.lastErr = msg.Err
	case EventMsg:
		m.applyEvent(cue.Event(msg))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "c":
		m.feed = nil
		m.plays, m.stops, m.loads, m.errors = 0, 0, 0, 0
	}
	return m, nil
}

func (m *Model) applyEvent(ev cue.Event) {
	switch ev.Type {
	case cue.EventPlay:
		m.plays++
	case cue.EventStop:
		m.stops++
	case cue.EventLoad:
		m.loads++
	case cue.EventError:
		m.errors++
	case cue.EventState:
		if ev.State != nil {
			m.state = ev.State
		}
		return
	}

	m.feed = append(m.feed, ev)
	if len(m.feed) > maxFeed {
		m.feed = m.feed[len(m.feed)-maxFeed:]
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := m.renderHeader()
	s += m.renderState()
	s += m.renderFeed()
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	status := fmt.Sprintf("Connecting to %s", m.url)
	if m.connected {
		status = fmt.Sprintf("Connected to %s", m.url)
	} else if m.lastErr != "" {
		status = fmt.Sprintf("Disconnected: %s", truncate(m.lastErr, 40))
	}

	return fmt.Sprintf(`┌─ Cue Monitor ────────────────────────────────────────┐
│ %-52s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 52))
}

func (m Model) renderState() string {
	if m.state == nil {
		return "│ (no engine state yet)                                │\n"
	}

	mute := ""
	if m.state.Muted {
		mute = " muted"
	}
	enabled := "enabled"
	if !m.state.Enabled {
		enabled = "disabled"
	}

	s := fmt.Sprintf("│ Backend: %-10s %s  volume %.0f%%%s%-12s │\n",
		m.state.ActiveBackend, enabled, m.state.MasterVolume*100, mute, "")
	s += fmt.Sprintf("│ Assets: %d loaded, %d failed%-26s │\n",
		len(m.state.LoadedAssets), len(m.state.FailedAssets), "")
	return s
}

func (m Model) renderFeed() string {
	s := fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Events: play %-4d stop %-4d load %-4d error %-4d    │
├──────────────────────────────────────────────────────┤
`, m.plays, m.stops, m.loads, m.errors)

	if len(m.feed) == 0 {
		s += "│ (waiting for events)                                 │\n"
		return s
	}

	for _, ev := range m.feed {
		line := fmt.Sprintf("%s %-6s %s", ev.At.Format("15:04:05.000"), ev.Type, ev.Key)
		if ev.Type == cue.EventError {
			line = fmt.Sprintf("%s %-6s %s %s", ev.At.Format("15:04:05.000"), ev.Type, ev.Code, ev.Key)
		}
		s += fmt.Sprintf("│ %-52s │\n", truncate(line, 52))
	}
	return s
}

func (m Model) renderHelp() string {
	return `│ c:Clear  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
