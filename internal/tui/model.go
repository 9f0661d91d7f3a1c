package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deepscience/deepscience/internal/client"
)

// sessionUpdatedMsg signals that the session changed and the view is stale.
type sessionUpdatedMsg struct{}

// streamFinishedMsg signals that the pipeline goroutine returned.
type streamFinishedMsg struct{ err error }

// suggestMsg carries autocomplete suggestions for the text they were
// requested for.
type suggestMsg struct {
	forText     string
	suggestions []string
}

// suggestTickMsg fires the debounce timer for autocomplete.
type suggestTickMsg struct{ forText string }

const suggestDebounce = 300 * time.Millisecond

// Model is the Bubble Tea model for the terminal client.
type Model struct {
	api     *client.Client
	session *client.Session

	input       textinput.Model
	viewport    viewport.Model
	updates     chan struct{}
	suggestions []string
	streaming   bool
	status      string
	ready       bool
}

// New creates a new TUI model instance.
func New(api *client.Client) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a research question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	m := Model{
		api:      api,
		session:  client.NewSession(),
		input:    ti,
		viewport: vp,
		updates:  make(chan struct{}, 16),
		status:   "Ready.",
	}
	api.OnUpdate = func() {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	}
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return sessionUpdatedMsg{}
	}
}

func (m Model) startStream(query string) tea.Cmd {
	ctx, pipelineID := m.session.Start(context.Background(), query)
	return func() tea.Msg {
		err := m.api.Stream(ctx, m.session, pipelineID, query)
		return streamFinishedMsg{err: err}
	}
}

func (m Model) scheduleSuggest(text string) tea.Cmd {
	return tea.Tick(suggestDebounce, func(time.Time) tea.Msg {
		return suggestTickMsg{forText: text}
	})
}

func (m Model) fetchSuggestions(text string) tea.Cmd {
	return func() tea.Msg {
		return suggestMsg{forText: text, suggestions: m.api.Suggest(context.Background(), text)}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := contentBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, suggestions line, input box, status
		vh := msg.Height - reserved - fh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-contentBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case sessionUpdatedMsg:
		atBottom := m.viewport.AtBottom()
		m.viewport.SetContent(m.renderContent())
		if atBottom {
			m.viewport.GotoBottom()
		}
		return m, m.waitForUpdate()

	case streamFinishedMsg:
		m.streaming = false
		if msg.err != nil {
			m.status = "Stream failed: " + msg.err.Error()
		} else {
			m.status = "Done. Press a paper number to highlight its citations."
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case suggestTickMsg:
		// Only fire if the input has not changed since the tick was armed.
		if !m.streaming && msg.forText == strings.TrimSpace(m.input.Value()) && msg.forText != "" {
			return m, m.fetchSuggestions(msg.forText)
		}
		return m, nil

	case suggestMsg:
		if msg.forText == strings.TrimSpace(m.input.Value()) {
			m.suggestions = msg.suggestions
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.session.Stop()
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.streaming = true
				m.suggestions = nil
				m.status = fmt.Sprintf("Searching for %q...", q)
				m.viewport.SetContent(m.renderContent())
				return m, m.startStream(q)
			}
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			// Digits highlight papers only while the input line is empty;
			// otherwise they type into the query as usual.
			state := m.session.Snapshot()
			if state.StreamComplete && strings.TrimSpace(m.input.Value()) == "" {
				n, _ := strconv.Atoi(msg.String())
				if n >= 1 && n <= len(state.Papers) {
					m.session.ToggleHighlight(state.Papers[n-1].ID)
					m.viewport.SetContent(m.renderContent())
					m.scrollToPaper(n)
					return m, nil
				}
			}
		case "tab":
			state := m.session.Snapshot()
			if len(state.FollowUpQuestions) > 0 {
				// Cycle the next follow-up question into the input.
				next := state.FollowUpQuestions[0]
				current := strings.TrimSpace(m.input.Value())
				for i, q := range state.FollowUpQuestions {
					if q == current && i+1 < len(state.FollowUpQuestions) {
						next = state.FollowUpQuestions[i+1]
						break
					}
				}
				m.input.SetValue(next)
				m.input.CursorEnd()
				return m, nil
			}
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		after := strings.TrimSpace(m.input.Value())
		if after != strings.TrimSpace(before) {
			m.suggestions = nil
			if after != "" && !m.streaming {
				return m, tea.Batch(cmd, m.scheduleSuggest(after))
			}
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// scrollToPaper scrolls the viewport so the given paper card is visible.
func (m *Model) scrollToPaper(ordinal int) {
	content := m.renderContent()
	marker := fmt.Sprintf("[%d] ", ordinal)
	idx := strings.Index(content, sectionTitleStyle.Render("Papers"))
	if idx < 0 {
		return
	}
	papersPart := content[idx:]
	paperIdx := strings.Index(papersPart, marker)
	if paperIdx < 0 {
		return
	}
	line := strings.Count(content[:idx+paperIdx], "\n")
	m.viewport.SetYOffset(line)
}

func (m Model) renderContent() string {
	state := m.session.Snapshot()
	var b strings.Builder

	if state.Err != "" {
		b.WriteString(errorStyle.Render(state.Err))
		b.WriteString("\n")
		b.WriteString("Press Enter to retry.\n")
	}

	if state.Answer != "" || state.StreamComplete {
		b.WriteString(sectionTitleStyle.Render("Answer"))
		b.WriteString("\n\n")
		b.WriteString(renderAnswer(state))
		b.WriteString("\n")
	}

	if len(state.FollowUpQuestions) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionTitleStyle.Render("You may also ask"))
		b.WriteString("\n")
		for _, q := range state.FollowUpQuestions {
			b.WriteString(followUpStyle.Render("  › " + q))
			b.WriteString("\n")
		}
	}

	if len(state.Papers) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionTitleStyle.Render("Papers"))
		b.WriteString("\n\n")
		for i, paper := range state.Papers {
			b.WriteString(renderPaper(i+1, paper, paper.ID == state.HighlightedID))
			b.WriteString("\n\n")
		}
	}

	if b.Len() == 0 {
		return "No results yet. Type a question and press Enter."
	}
	return b.String()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("DeepScience")
	content := contentBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())

	suggestLine := ""
	if len(m.suggestions) > 0 {
		suggestLine = suggestionStyle.Render("Try: " + strings.Join(m.suggestions, " | "))
	}

	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + content + "\n" + input + "\n" + suggestLine + "\n" + status
}

var (
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
