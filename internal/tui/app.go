package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the terminal front end over the Jarvis engine. It owns no
// conversation state of its own: every turn is read back from the
// engine's store on each repaint, so partial reveal updates coming from
// the orchestrator goroutines show up the same way finalized turns do.
type Model struct {
	application *app.Application
	input       textarea.Model
	keys        keyMap
	markdown    *MarkdownRenderer
	updates     chan struct{}

	windowWidth  int
	windowHeight int
	spinner      int
	showHelp     bool

	history    []string
	historyIdx int
}

func New(application *app.Application) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask Jarvis... (/help for commands)"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetWidth(80)
	ta.SetHeight(2)
	ta.Prompt = "▍ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = mutedTextStyle
	ta.BlurredStyle.Placeholder = mutedTextStyle

	history, _ := application.Memory.LoadPromptHistory()

	m := &Model{
		application:  application,
		input:        ta,
		keys:         defaultKeyMap(),
		markdown:     NewMarkdownRenderer(),
		updates:      make(chan struct{}, 1),
		windowWidth:  80,
		windowHeight: 24,
		history:      history,
		historyIdx:   len(history),
	}

	application.Store.Subscribe(func() {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	})

	return m
}

func (m *Model) Init() tea.Cmd {
	m.application.Connect()
	return tea.Batch(textarea.Blink, m.waitForEngine())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.input.SetWidth(msg.Width - 6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.application.Disconnect()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Cancel):
			m.application.Orchestrator.CancelActive()
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.PrevPrompt):
			if m.input.Value() == "" || m.historyIdx < len(m.history) {
				m.recallHistory(-1)
				return m, nil
			}

		case key.Matches(msg, m.keys.NextPrompt):
			if m.historyIdx < len(m.history) {
				m.recallHistory(1)
				return m, nil
			}

		case key.Matches(msg, m.keys.Enter):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.submit(text)
		}

	case engineUpdateMsg:
		cmds = append(cmds, m.waitForEngine())
		if m.application.Store.Phase() != app.PhaseIdle {
			cmds = append(cmds, m.spinCmd())
		}
		return m, tea.Batch(cmds...)

	case spinMsg:
		if m.application.Store.Phase() != app.PhaseIdle {
			m.spinner = (m.spinner + 1) % len(spinnerFrames)
			return m, m.spinCmd()
		}
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderMessages())
	b.WriteString("\n")
	b.WriteString(inputStyle.Width(m.windowWidth - 4).Render(m.input.View()))
	b.WriteString("\n")

	if phase := m.application.Store.Phase(); phase != app.PhaseIdle {
		frame := spinnerFrames[m.spinner%len(spinnerFrames)]
		b.WriteString(phaseStyle.Render(fmt.Sprintf("%s %s...", frame, phaseLabel(phase))))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(m.renderHelp())
	} else {
		b.WriteString(helpFooterStyle.Render("enter send | esc stop | ctrl+h help | ctrl+q quit"))
	}

	return b.String()
}

// submit routes slash commands locally and hands everything else to the
// orchestrator off the UI goroutine.
func (m *Model) submit(text string) tea.Cmd {
	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	m.pushHistory(text)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		m.application.SendUserText(ctx, text)
		return nil
	}
}

func (m *Model) runCommand(text string) tea.Cmd {
	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	switch name {
	case "/help":
		m.showHelp = !m.showHelp
		return nil

	case "/clear":
		m.application.ClearConversation()
		return nil

	case "/model":
		if len(args) == 0 {
			return nil
		}
		model := args[0]
		if err := m.application.UpdateSettings(func(s app.Settings) app.Settings {
			s.Model = model
			return s
		}); err != nil {
			m.application.Logger.Warn("settings save failed", map[string]interface{}{"error": err.Error()})
		}
		return nil

	case "/preview":
		if err := m.application.UpdateSettings(func(s app.Settings) app.Settings {
			s.DualModelPreview = !s.DualModelPreview
			return s
		}); err != nil {
			m.application.Logger.Warn("settings save failed", map[string]interface{}{"error": err.Error()})
		}
		return nil

	case "/tool":
		if len(args) == 0 {
			return nil
		}
		tool := args[0]
		toolArgs := map[string]string{}
		for _, pair := range args[1:] {
			if k, v, ok := strings.Cut(pair, "="); ok {
				toolArgs[k] = v
			}
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			m.application.RunTool(ctx, tool, toolArgs)
			return nil
		}

	case "/imagine":
		prompt := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
		if prompt == "" {
			return nil
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			m.application.GenerateImage(ctx, prompt)
			return nil
		}

	case "/quit":
		m.application.Disconnect()
		return tea.Quit
	}

	return nil
}

func (m *Model) pushHistory(text string) {
	if n := len(m.history); n == 0 || m.history[n-1] != text {
		m.history = append(m.history, text)
	}
	m.historyIdx = len(m.history)
	if err := m.application.Memory.SavePromptHistory(m.history); err != nil {
		m.application.Logger.Warn("prompt history save failed", map[string]interface{}{"error": err.Error()})
	}
}

func (m *Model) recallHistory(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.historyIdx += delta
	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx >= len(m.history) {
		m.historyIdx = len(m.history)
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[m.historyIdx])
	m.input.CursorEnd()
}

func (m *Model) waitForEngine() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return engineUpdateMsg{}
	}
}

func (m *Model) spinCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(_ time.Time) tea.Msg {
		return spinMsg{}
	})
}

type engineUpdateMsg struct{}

type spinMsg struct{}

func (m *Model) renderHeader() string {
	settings := m.application.SettingsSnapshot()
	status := "offline"
	if m.application.Store.Connected() {
		status = "online"
	}
	title := headerStyle.Render("Jarvis")
	badge := headerBadgeStyle.Render(fmt.Sprintf(" %s • %s ", settings.Model, status))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, badge)
}

func (m *Model) renderMessages() string {
	var b strings.Builder
	width := m.windowWidth - 4

	for _, msg := range m.application.Store.Messages() {
		switch msg.Role {
		case app.RoleUser:
			b.WriteString(userHeaderStyle.Render("You"))
			b.WriteString(mutedTextStyle.Render(" • " + msg.Timestamp.Format("15:04:05")))
			b.WriteString("\n")
			if msg.ImageThumb != "" {
				b.WriteString(mutedTextStyle.Render("[camera frame]"))
				if msg.Text != "" {
					b.WriteString(" ")
				}
			}
			b.WriteString(msg.Text)
			b.WriteString("\n\n")

		case app.RoleAssistant:
			b.WriteString(assistantHeaderStyle.Render("Jarvis"))
			if msg.PrimaryModel != "" {
				b.WriteString(mutedTextStyle.Render(" • " + msg.PrimaryModel))
			}
			if n := len(msg.Comparisons); n > 0 {
				b.WriteString(mutedTextStyle.Render(fmt.Sprintf(" • +%d alternate", n)))
			}
			b.WriteString("\n")
			if msg.Partial {
				b.WriteString(renderPartial(msg.DisplayText))
			} else {
				b.WriteString(m.markdown.Render(msg.Text, width))
			}
			b.WriteString("\n\n")

		case app.RoleTool:
			b.WriteString(toolHeaderStyle.Render(app.FormatToolName(msg.ToolName)))
			b.WriteString("\n")
			if line := FormatToolTimeline([]app.Message{msg}); line != "" {
				b.WriteString(line)
				b.WriteString("\n")
			}
			b.WriteString(renderPartial(msg.Text))
			b.WriteString("\n\n")

		case app.RoleSystem:
			b.WriteString(systemTextStyle.Render(msg.Text))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

// renderPartial styles **bold** spans directly instead of going through
// the markdown pipeline, so a half-revealed turn never shows raw markers.
func renderPartial(text string) string {
	var b strings.Builder
	for _, span := range app.SegmentBold(text) {
		if span.Kind == app.SpanBold {
			b.WriteString(partialBoldStyle.Render(span.Text))
		} else {
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

func phaseLabel(phase app.Phase) string {
	switch phase {
	case app.PhaseListening:
		return "Listening"
	case app.PhaseThinking:
		return "Thinking"
	case app.PhaseSpeaking:
		return "Speaking"
	case app.PhaseError:
		return "Recovering"
	default:
		return string(phase)
	}
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(mutedTextStyle.Render("commands"))
	b.WriteString("\n")
	b.WriteString("  /clear              wipe the conversation\n")
	b.WriteString("  /model <name>       switch the primary model\n")
	b.WriteString("  /preview            toggle dual-model preview\n")
	b.WriteString("  /tool <name> k=v    run a tool (describe_scene, search_web,\n")
	b.WriteString("                      open_link, create_calendar_event)\n")
	b.WriteString("  /imagine <prompt>   generate an image (SDK backend only)\n")
	b.WriteString("  /quit               exit\n")
	return b.String()
}

type keyMap struct {
	Quit       key.Binding
	Enter      key.Binding
	Cancel     key.Binding
	Help       key.Binding
	PrevPrompt key.Binding
	NextPrompt key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop speaking"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "toggle help"),
		),
		PrevPrompt: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "previous prompt"),
		),
		NextPrompt: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "next prompt"),
		),
	}
}
