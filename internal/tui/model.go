package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/pipeline"
)

// answerMsg carries the outcome of one Ask back into Update.
type answerMsg struct {
	result *pipeline.Result
	err    error
}

// Model is the Bubble Tea model for the study assistant.
type Model struct {
	port     Port
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	sizes          chunker.SizeRange
	chunkSize      int
	showConfidence bool
	showText       bool
	answering      bool

	summary string
	status  string
	result  *pipeline.Result
	failure string
	ready   bool
}

// New creates a model over port. summary is shown under the header.
func New(port Port, sizes chunker.SizeRange, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		port:           port,
		input:          ti,
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		sizes:          sizes,
		chunkSize:      sizes.Default,
		showConfidence: true,
		summary:        summary,
		status:         "Loaded. Ask a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + 1 + qh + 1 // header+summary+settings, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.answering = false
		m.result = msg.result
		m.failure = ""
		if msg.err != nil {
			m.failure = failureText(msg.err)
			m.status = "Failed"
		} else {
			m.status = fmt.Sprintf("Answered from chunk %d of %d", msg.result.ChunkIndex+1, msg.result.ChunkCount)
		}
		m.showText = false
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.answering {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "pgup":
			m.chunkSize = m.sizes.Increase(m.chunkSize)
			return m, nil
		case "pgdown":
			m.chunkSize = m.sizes.Decrease(m.chunkSize)
			return m, nil
		case "ctrl+t":
			m.showConfidence = !m.showConfidence
			m.refresh()
			return m, nil
		case "ctrl+e":
			m.showText = !m.showText
			m.refresh()
			m.viewport.GotoTop()
			return m, nil
		case "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.answering {
		return m, nil
	}
	question := m.input.Value()
	if strings.TrimSpace(question) == "" {
		m.failure = pipeline.Message(pipeline.KindInvalidInput)
		m.result = nil
		m.status = "Warning"
		m.refresh()
		return m, nil
	}

	m.answering = true
	m.status = "Thinking..."
	q := pipeline.Query{
		Question:       question,
		ChunkSize:      m.chunkSize,
		ShowConfidence: m.showConfidence,
	}
	return m, tea.Batch(m.spinner.Tick, askCmd(m.port, q))
}

func askCmd(port Port, q pipeline.Query) tea.Cmd {
	return func() tea.Msg {
		res, err := port.Ask(context.Background(), q)
		return answerMsg{result: res, err: err}
	}
}

func failureText(err error) string {
	if errors.Is(err, pipeline.ErrBusy) {
		return "Still answering the previous question."
	}
	kind := pipeline.KindOf(err)
	if kind == pipeline.KindInvalidArgument {
		return err.Error()
	}
	return pipeline.Message(kind)
}

func (m *Model) refresh() {
	if m.showText {
		text := m.port.Text()
		if strings.TrimSpace(text) == "" {
			text = "No text was extracted from this document."
		}
		m.viewport.SetContent(text)
		return
	}
	m.viewport.SetContent(m.renderAnswer())
}

func (m Model) renderAnswer() string {
	if m.failure != "" {
		return failureStyle.Render(m.failure)
	}
	if m.result == nil {
		return "No answer yet."
	}
	var sb strings.Builder
	sb.WriteString(answerStyle.Render("Answer: " + m.result.Answer))
	if m.showConfidence {
		sb.WriteString("\n")
		sb.WriteString(infoStyle.Render("Confidence Score: " + pipeline.FormatConfidence(m.result.Score)))
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Chunk %d/%d (%d shared words)\n", m.result.ChunkIndex+1, m.result.ChunkCount, m.result.Overlap))
	sb.WriteString(m.result.ChunkText)
	return sb.String()
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Study Mate")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	confidence := "off"
	if m.showConfidence {
		confidence = "on"
	}
	settings := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		fmt.Sprintf("chunk size %d (pgup/pgdown)  confidence %s (ctrl+t)  extracted text (ctrl+e)", m.chunkSize, confidence),
	)
	body := bodyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.answering {
		status = m.spinner.View() + " " + status
	}
	status = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	return header + "\n" + summary + "\n" + settings + "\n" + body + "\n" + input + "\n" + status
}

var (
	bodyBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
