package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"missiond/internal/types"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginTop(1)
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).MarginTop(1)
	mutedStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectedOptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	missionCardStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("10")).
				Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("13")).
			Padding(0, 1)
)

type chatEntry struct {
	role    string // "user" or "assistant"
	content string
	time    time.Time
}

type (
	envelopeMsg types.ResponseEnvelope
	turnErrMsg  error
)

type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	history   []chatEntry
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Clarification state: while a question is pending, up/down/tab pick
	// from its options and enter submits the pick as the next message.
	pendingClarification *types.ClarificationQuestion
	selectedOption       int

	sessionID string
	turnCount int

	rt *runtime
}

func newChatModel(rt *runtime) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Tell me what you want done... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = warningStyle

	vp := viewport.New(80, 20)
	vp.SetContent("")

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		renderer:  renderer,
		history:   []chatEntry{},
		sessionID: fmt.Sprintf("chat_%d", time.Now().UnixNano()),
		rt:        rt,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}

		case tea.KeyUp:
			if m.optionCount() > 0 && m.textinput.Value() == "" {
				if m.selectedOption > 0 {
					m.selectedOption--
				}
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}

		case tea.KeyDown:
			if m.optionCount() > 0 && m.textinput.Value() == "" {
				if m.selectedOption < m.optionCount()-1 {
					m.selectedOption++
				}
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}

		case tea.KeyTab:
			if n := m.optionCount(); n > 0 {
				m.selectedOption = (m.selectedOption + 1) % n
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}
		}

		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}
		m.textinput.Width = msg.Width - 6

		if m.renderer != nil && msg.Width > 8 {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(msg.Width-8),
			)
		}
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
		}

	case envelopeMsg:
		m.isLoading = false
		m.err = nil
		m.turnCount++
		m.applyEnvelope(types.ResponseEnvelope(msg))
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case turnErrMsg:
		m.isLoading = false
		m.err = msg
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textinput.Value())

	// Empty enter with a pending clarification submits the selected option.
	if text == "" && m.optionCount() > 0 {
		text = m.pendingClarification.Options[m.selectedOption]
	}
	if text == "" {
		return m, nil
	}

	m.history = append(m.history, chatEntry{role: "user", content: text, time: time.Now()})
	m.textinput.Reset()
	m.pendingClarification = nil
	m.selectedOption = 0
	m.isLoading = true
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, m.processTurn(text))
}

// processTurn runs one engine turn off the UI goroutine.
func (m chatModel) processTurn(text string) tea.Cmd {
	engine := m.rt.engine
	sessionID := m.sessionID
	return func() tea.Msg {
		envelope, err := engine.Process(context.Background(), sessionID, text)
		if err != nil {
			return turnErrMsg(err)
		}
		return envelopeMsg(envelope)
	}
}

// applyEnvelope converts a response envelope into history entries and
// clarification state.
func (m *chatModel) applyEnvelope(envelope types.ResponseEnvelope) {
	switch envelope.Type {
	case types.ResponseMissionProposed:
		var card strings.Builder
		for _, ref := range envelope.Missions {
			card.WriteString(fmt.Sprintf("Mission %s  %s\n%s",
				shortID(ref.MissionID),
				successStyle.Render(string(ref.Status)),
				ref.Objective))
		}
		m.history = append(m.history, chatEntry{
			role:    "assistant",
			content: missionCardStyle.Render(card.String()) + "\n" + envelope.Summary,
			time:    envelope.Timestamp,
		})

	case types.ResponseClarification:
		if envelope.Clarification != nil {
			q := *envelope.Clarification
			m.pendingClarification = &q
			m.selectedOption = 0
			m.history = append(m.history, chatEntry{
				role:    "assistant",
				content: q.Question,
				time:    envelope.Timestamp,
			})
			if len(q.Options) > 0 {
				m.textinput.Placeholder = "Pick with ↑/↓ and Enter, or type your answer..."
			} else {
				m.textinput.Placeholder = "Type your answer..."
			}
			return
		}
		m.history = append(m.history, chatEntry{role: "assistant", content: envelope.Summary, time: envelope.Timestamp})

	default:
		m.history = append(m.history, chatEntry{role: "assistant", content: envelope.Summary, time: envelope.Timestamp})
	}
	m.textinput.Placeholder = "Tell me what you want done... (Enter to send, Ctrl+C to exit)"
}

func (m chatModel) optionCount() int {
	if m.pendingClarification == nil {
		return 0
	}
	return len(m.pendingClarification.Options)
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder

	for _, entry := range m.history {
		if entry.role == "user" {
			sb.WriteString(userLabelStyle.Render("You") + "\n")
			sb.WriteString(entry.content)
			sb.WriteString("\n")
		} else {
			sb.WriteString(assistantLabelStyle.Render("missiond") + "\n")
			sb.WriteString(m.safeRenderMarkdown(entry.content))
			sb.WriteString("\n")
		}
	}

	// Pending options render under the question with a selection cursor.
	if m.pendingClarification != nil && len(m.pendingClarification.Options) > 0 {
		sb.WriteString("\n")
		for i, opt := range m.pendingClarification.Options {
			if i == m.selectedOption {
				sb.WriteString(selectedOptStyle.Render("  ▸ "+opt) + "\n")
			} else {
				sb.WriteString(mutedStyle.Render("    "+opt) + "\n")
			}
		}
		if m.pendingClarification.InferredAnswer != "" {
			sb.WriteString(mutedStyle.Render(
				fmt.Sprintf("  (probably: %s)", m.pendingClarification.InferredAnswer)) + "\n")
		}
	}

	return sb.String()
}

func (m chatModel) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := lipgloss.NewStyle().Bold(true).Render(" missiond ")
	var status string
	if m.isLoading {
		status = warningStyle.Render("● thinking")
	} else if m.pendingClarification != nil {
		status = warningStyle.Render("● waiting for clarification")
	} else {
		status = successStyle.Render("● ready")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)

	chatView := m.viewport.View()
	if m.isLoading {
		chatView += "\n" + m.spinner.View() + " classifying..."
	}
	if m.err != nil {
		chatView += "\n" + errorStyle.Render("Error: "+m.err.Error())
	}

	footer := mutedStyle.Render(fmt.Sprintf(" session %s | %d turn(s) | Ctrl+C to exit", m.sessionID, m.turnCount))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputBoxStyle.Render(m.textinput.View()),
		footer,
	)
}

// runChat starts the interactive chat surface.
func runChat() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	p := tea.NewProgram(newChatModel(rt), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
