package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/pagination"
	"github.com/zaqqye/feedhub_v1/internal/utils"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// LobbyActions is what the lobby screen can ask of the room.
type LobbyActions interface {
	SetQuestion(ctx context.Context, question string) error
	Start(ctx context.Context) (nav.Route, error)
	Handle(ctx context.Context, ev ws.Event) (nav.Route, bool, error)
	JoinLink() string
	QRCode() string
}

type questionSavedMsg struct {
	question string
	err      error
}

type startedMsg struct {
	next nav.Route
	err  error
}

// LobbyModel shows the PIN, the join link, a paged roster and the question
// editor. It quits once the page should change; Result tells where to.
type LobbyModel struct {
	ctx     context.Context
	pin     string
	actions LobbyActions
	events  <-chan ws.Event

	roster   []models.Student
	pager    *pagination.Pager
	question string
	input    textinput.Model
	editing  bool
	starting bool
	status   string

	next   nav.Route
	err    error
	styles Styles
	width  int
}

func NewLobbyModel(ctx context.Context, pin string, actions LobbyActions, events <-chan ws.Event, pageSize int) LobbyModel {
	in := textinput.New()
	in.Placeholder = "Ask your students something..."
	in.CharLimit = 200
	in.Prompt = "? "
	return LobbyModel{
		ctx:     ctx,
		pin:     pin,
		actions: actions,
		events:  events,
		pager:   pagination.New(pageSize),
		input:   in,
		styles:  DefaultStyles(),
	}
}

func (m LobbyModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Result is the page to open after the program exits.
func (m LobbyModel) Result() (nav.Route, error) {
	return m.next, m.err
}

func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case EventMsg:
		switch e := msg.Event.(type) {
		case ws.RosterChanged:
			m.roster = e.Students
			m.pager.SetLen(len(m.roster))
		case ws.QuestionChanged:
			m.question = e.Question
		}
		if next, done, err := m.actions.Handle(m.ctx, msg.Event); done {
			m.next, m.err = next, err
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case streamEndedMsg:
		m.next = nav.Home()
		return m, tea.Quit

	case questionSavedMsg:
		if msg.err != nil {
			m.status = "Could not update the question."
			return m, nil
		}
		m.question = msg.question
		m.status = "Question sent to the room."
		return m, nil

	case startedMsg:
		m.starting = false
		if msg.err != nil {
			m.status = "Could not start the activity."
			return m, nil
		}
		m.next = msg.next
		return m, tea.Quit

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.next = nav.Home()
			return m, tea.Quit
		case "left", "h":
			m.pager.Prev()
		case "right", "l":
			m.pager.Next()
		case "e":
			m.editing = true
			m.input.SetValue(m.question)
			m.input.CursorEnd()
			cmd := m.input.Focus()
			return m, cmd
		case "s":
			if m.starting {
				return m, nil
			}
			m.starting = true
			m.status = "Starting..."
			return m, m.start()
		}
	}
	return m, nil
}

func (m LobbyModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		return m, m.saveQuestion(m.input.Value())
	case "ctrl+c":
		m.next = nav.Home()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m LobbyModel) saveQuestion(q string) tea.Cmd {
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		q = strings.TrimSpace(q)
		return questionSavedMsg{question: q, err: actions.SetQuestion(ctx, q)}
	}
}

func (m LobbyModel) start() tea.Cmd {
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		next, err := actions.Start(ctx)
		return startedMsg{next: next, err: err}
	}
}

func (m LobbyModel) View() string {
	st := m.styles
	var b strings.Builder

	b.WriteString(st.Header.Render("FeedHub · Lobby"))
	b.WriteString("\n\n")
	b.WriteString(st.PIN.Render("PIN " + utils.FormatPIN(m.pin)))
	b.WriteString("\n")
	b.WriteString(st.Muted.Render("Join: " + m.actions.JoinLink()))
	b.WriteString("\n")
	b.WriteString(st.Muted.Render("QR:   " + m.actions.QRCode()))
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString(m.input.View())
	} else if m.question != "" {
		b.WriteString(st.Title.Render(m.question))
	} else {
		b.WriteString(st.Muted.Render("No question yet. Press e to write one."))
	}
	b.WriteString("\n\n")

	b.WriteString(st.Title.Render(fmt.Sprintf("Students (%d)", len(m.roster))))
	b.WriteString("\n")
	if len(m.roster) == 0 {
		b.WriteString(st.Muted.Render("Waiting for students to join..."))
	} else {
		cards := make([]string, 0, m.pager.Size)
		for _, s := range pagination.Visible(m.pager, m.roster) {
			cards = append(cards, st.Card.Render(avatar(s)+" "+s.Name))
		}
		b.WriteString(arrow("◀", m.pager.CanPrev(), st) + " ")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		b.WriteString(" " + arrow("▶", m.pager.CanNext(), st))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString(st.Footer.Render("←/→ browse · e edit question · s start · q quit"))
	return b.String()
}
