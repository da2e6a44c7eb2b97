package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/pagination"
	"github.com/zaqqye/feedhub_v1/internal/room"
	"github.com/zaqqye/feedhub_v1/internal/utils"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// DashboardActions lets the dashboard screen hand events to the room so they
// are persisted and relayed.
type DashboardActions interface {
	Handle(ctx context.Context, ev ws.Event) (nav.Route, bool, error)
}

// DashboardModel lists the feedback of the running activity, newest first,
// with a rating summary on top.
type DashboardModel struct {
	ctx     context.Context
	pin     string
	actions DashboardActions
	events  <-chan ws.Event

	feedbacks []models.Feedback
	seen      map[models.FeedbackKey]struct{}
	names     map[string]string
	question  string
	pager     *pagination.Pager

	next   nav.Route
	err    error
	styles Styles
}

func NewDashboardModel(ctx context.Context, pin string, actions DashboardActions, events <-chan ws.Event, pageSize int) DashboardModel {
	return DashboardModel{
		ctx:     ctx,
		pin:     pin,
		actions: actions,
		events:  events,
		seen:    map[models.FeedbackKey]struct{}{},
		names:   map[string]string{},
		pager:   pagination.New(pageSize),
		styles:  DefaultStyles(),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m DashboardModel) Result() (nav.Route, error) {
	return m.next, m.err
}

// Feedbacks returns the entries in arrival order.
func (m DashboardModel) Feedbacks() []models.Feedback {
	return m.feedbacks
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		switch e := msg.Event.(type) {
		case ws.FeedbackAdded:
			if _, dup := m.seen[e.Feedback.Key()]; !dup {
				m.seen[e.Feedback.Key()] = struct{}{}
				m.feedbacks = append(m.feedbacks, e.Feedback)
				m.pager.SetLen(len(m.feedbacks))
			}
		case ws.RosterChanged:
			for _, s := range e.Students {
				m.names[s.StudentID] = s.Name
			}
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

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.next = nav.Home()
			return m, tea.Quit
		case "left", "h":
			m.pager.Prev()
		case "right", "l":
			m.pager.Next()
		}
	}
	return m, nil
}

// newestFirst reverses the arrival order for display.
func (m DashboardModel) newestFirst() []models.Feedback {
	out := make([]models.Feedback, len(m.feedbacks))
	for i, f := range m.feedbacks {
		out[len(out)-1-i] = f
	}
	return out
}

func (m DashboardModel) View() string {
	st := m.styles
	var b strings.Builder

	b.WriteString(st.Header.Render("FeedHub · Dashboard · PIN " + utils.FormatPIN(m.pin)))
	b.WriteString("\n\n")
	if m.question != "" {
		b.WriteString(st.Title.Render(m.question))
		b.WriteString("\n")
	}

	sum := room.Summarize(m.feedbacks)
	b.WriteString(st.Title.Render(fmt.Sprintf("%d responses · average %.1f", sum.Count, sum.Average)))
	b.WriteString("\n")
	for i := len(sum.Distribution) - 1; i >= 0; i-- {
		n := sum.Distribution[i]
		b.WriteString(fmt.Sprintf("%2d │%s %d\n", i+1, st.Bar.Render(bar(n, sum.Count, 30)), n))
	}
	b.WriteString("\n")

	if len(m.feedbacks) == 0 {
		b.WriteString(st.Muted.Render("No feedback yet."))
		b.WriteString("\n")
	}
	for _, f := range pagination.Visible(m.pager, m.newestFirst()) {
		who := m.names[f.StudentID]
		if who == "" {
			who = f.StudentID
		}
		when := time.UnixMilli(f.Timestamp).Format("15:04:05")
		card := fmt.Sprintf("%s  %d/10  %s\n%s", who, f.Rating, st.Muted.Render(when), st.Comment.Render(f.Message))
		b.WriteString(st.Card.Render(card))
		b.WriteString("\n")
	}
	if m.pager.CanPrev() || m.pager.CanNext() {
		b.WriteString(arrow("◀ newer", m.pager.CanPrev(), st) + "   " + arrow("older ▶", m.pager.CanNext(), st))
		b.WriteString("\n")
	}
	b.WriteString(st.Footer.Render("←/→ browse · q quit"))
	return b.String()
}
