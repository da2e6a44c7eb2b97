package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/room"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// CreateRoom is the home page's "create room" action.
func (a *App) CreateRoom(ctx context.Context) (nav.Route, error) {
	pin, err := a.API.CreateRoom(ctx)
	if err != nil {
		a.failRequest(err, "Could not create room", "Unknown error.",
			"Network error while creating the room. Try again.")
		return nav.Home(), err
	}
	a.log().WithField("pin", pin).Info("room created")
	a.persist(ctx, func(s Sessions) error {
		return s.SaveSession(ctx, &models.RoomSession{PIN: pin, Role: models.RoleTeacher})
	})
	a.Notify.Success("Room created!")
	return nav.Route{Page: nav.PageLobby, PIN: pin}, nil
}

// Lobby is the teacher's waiting room: live roster, question editor, join
// link and the start button.
type Lobby struct {
	app     *App
	PIN     string
	Session ws.RoomSession
}

func (a *App) OpenLobby(ctx context.Context, r nav.Route) (*Lobby, error) {
	if err := a.guard(r); err != nil {
		return nil, err
	}
	sess, err := a.dial(ctx, ws.Options{PIN: r.PIN, Role: models.RoleTeacher, Seeder: a.API})
	if err != nil {
		a.Notify.Error("Could not connect to the room.")
		return nil, err
	}
	return &Lobby{app: a, PIN: r.PIN, Session: sess}, nil
}

func (l *Lobby) State() *room.State { return l.Session.State() }

func (l *Lobby) JoinLink() string { return nav.JoinLink(l.app.FrontendBaseURL, l.PIN) }

func (l *Lobby) QRCode() string { return nav.QRCodeURL(l.JoinLink()) }

// SetQuestion broadcasts a new question to every student in the room.
func (l *Lobby) SetQuestion(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if err := l.Session.UpdateQuestion(ctx, question); err != nil {
		l.app.Notify.Error("Could not update the question.")
		return err
	}
	l.app.persist(ctx, func(s Sessions) error { return s.SetQuestion(ctx, l.PIN, question) })
	return nil
}

// Start starts the activity through the REST endpoint and also announces it
// on the socket, then opens the dashboard.
func (l *Lobby) Start(ctx context.Context) (nav.Route, error) {
	if err := l.app.API.StartActivity(ctx, l.PIN); err != nil {
		l.app.failRequest(err, "Could not start the activity", "Unknown error.",
			"Network error while starting the activity. Try again.")
		return nav.Route{Page: nav.PageLobby, PIN: l.PIN}, err
	}
	if err := l.Session.StartActivity(ctx); err != nil {
		l.app.log().WithError(err).WithField("pin", l.PIN).Warn("activity-started broadcast failed")
	}
	l.app.persist(ctx, func(s Sessions) error { return s.MarkStarted(ctx, l.PIN, time.Now()) })
	l.app.Notify.Success("Activity started!")
	return l.dashboardRoute(), nil
}

func (l *Lobby) dashboardRoute() nav.Route {
	return nav.Route{Page: nav.PageDashboard, PIN: l.PIN}
}

// Handle reacts to one socket event. It returns done when the page should
// be left for next.
func (l *Lobby) Handle(ctx context.Context, ev ws.Event) (next nav.Route, done bool, err error) {
	switch e := ev.(type) {
	case ws.QuestionChanged:
		l.app.persist(ctx, func(s Sessions) error { return s.SetQuestion(ctx, l.PIN, e.Question) })
	case ws.ActivityStarted:
		return l.dashboardRoute(), true, nil
	case ws.SeedFailed:
		l.app.Notify.Error("Could not load the student list.")
	case ws.Closed:
		l.app.Notify.Error("Connection to the room was closed.")
		return nav.Home(), true, closedErr(e)
	}
	return nav.Route{}, false, nil
}

// Run serves the lobby without a UI until the activity starts or the socket closes.
func (l *Lobby) Run(ctx context.Context) (nav.Route, error) {
	return l.app.pump(ctx, l.Session, func(ev ws.Event) (nav.Route, bool, error) {
		return l.Handle(ctx, ev)
	})
}

func (l *Lobby) Close() error { return l.Session.Close() }

// Dashboard shows the feedback of a running activity and relays it to the
// local dashboard server.
type Dashboard struct {
	app     *App
	PIN     string
	Session ws.RoomSession
	Hub     *ws.DashboardHub
}

// OpenDashboard connects the dashboard socket. hub may be nil when no local
// server is running.
func (a *App) OpenDashboard(ctx context.Context, r nav.Route, hub *ws.DashboardHub) (*Dashboard, error) {
	if err := a.guard(r); err != nil {
		return nil, err
	}
	sess, err := a.dial(ctx, ws.Options{
		PIN:           r.PIN,
		Role:          models.RoleTeacher,
		Seeder:        a.API,
		SeedFeedbacks: true,
	})
	if err != nil {
		a.Notify.Error("Could not connect to the room.")
		return nil, err
	}
	return &Dashboard{app: a, PIN: r.PIN, Session: sess, Hub: hub}, nil
}

func (d *Dashboard) State() *room.State { return d.Session.State() }

func (d *Dashboard) Feedbacks() []models.Feedback { return d.Session.State().Feedbacks() }

func (d *Dashboard) Summary() room.Summary { return d.Session.State().Summary() }

// Handle persists and relays one socket event.
func (d *Dashboard) Handle(ctx context.Context, ev ws.Event) (next nav.Route, done bool, err error) {
	d.Hub.PublishEvent(d.PIN, ev)
	switch e := ev.(type) {
	case ws.FeedbackAdded:
		d.app.log().WithFields(logrus.Fields{"pin": d.PIN, "student_id": e.Feedback.StudentID}).Debug("feedback received")
		d.app.persist(ctx, func(s Sessions) error {
			_, err := s.SaveFeedbacks(ctx, d.PIN, []models.Feedback{e.Feedback})
			return err
		})
	case ws.SeedFailed:
		d.app.Notify.Error("Could not load feedback.")
	case ws.Closed:
		d.app.Notify.Error("Connection to the room was closed.")
		return nav.Home(), true, closedErr(e)
	}
	return nav.Route{}, false, nil
}

// Run serves the dashboard without a UI until the socket closes or ctx ends.
func (d *Dashboard) Run(ctx context.Context) (nav.Route, error) {
	return d.app.pump(ctx, d.Session, func(ev ws.Event) (nav.Route, bool, error) {
		return d.Handle(ctx, ev)
	})
}

func (d *Dashboard) Close() error { return d.Session.Close() }

// ListFeedbacks serves the live feedback list to the dashboard server.
func (d *Dashboard) ListFeedbacks(ctx context.Context, pin string) ([]models.Feedback, error) {
	if pin != d.PIN {
		return nil, ErrUnknownRoom
	}
	return d.Feedbacks(), nil
}

// Roster serves the live roster to the dashboard server.
func (d *Dashboard) Roster(ctx context.Context, pin string) ([]models.Student, error) {
	if pin != d.PIN {
		return nil, ErrUnknownRoom
	}
	return d.Session.State().Roster(), nil
}

func closedErr(e ws.Closed) error {
	if e.Err != nil {
		return errors.Join(ErrConnection, e.Err)
	}
	return ErrConnection
}
