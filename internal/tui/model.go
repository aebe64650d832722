package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"finedge/internal/prompt"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Answer(ctx context.Context, role, query string) (string, error)
}

type entry struct {
	speaker string
	text    string
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	service  ChatPort
	role     string
	input    textinput.Model
	viewport viewport.Model
	log      []entry
	status   string
	ready    bool
}

// New creates a new chat model for the given role.
func New(service ChatPort, role string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{service: service, role: role, input: ti, viewport: vp, status: "Connected. Ctrl+C to quit."}
	m.log = append(m.log, entry{speaker: "FinBot", text: prompt.Greeting(role)})
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.log = append(m.log, entry{speaker: "You", text: q})
				answer, err := m.service.Answer(context.Background(), m.role, q)
				if err != nil {
					m.log = append(m.log, entry{speaker: "FinBot", text: prompt.SystemErrorResponse})
					m.status = "Error: " + err.Error()
				} else {
					m.log = append(m.log, entry{speaker: "FinBot", text: answer})
					m.status = "Connected. Ctrl+C to quit."
				}
				m.input.Reset()
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("FinBot  [" + m.role + "]")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.log) == 0 {
		return "No messages yet."
	}
	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	for i, e := range m.log {
		if i > 0 {
			b.WriteString("\n\n")
		}
		name := botNameStyle
		if e.speaker == "You" {
			name = userNameStyle
		}
		b.WriteString(name.Render(e.speaker + ":"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(e.text))
	}
	return b.String()
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userNameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botNameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
