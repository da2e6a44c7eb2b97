// Package flows implements what each FeedHub page does: validate input, call
// the backend, raise a notification and decide which page comes next.
package flows

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/api"
	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/notify"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

const (
	DefaultRating        = 8
	MinRating            = 1
	MaxRating            = 10
	DefaultRedirectDelay = 5 * time.Second
)

var (
	ErrInvalidPIN    = errors.New("flows: pin must be 6 digits")
	ErrNameRequired  = errors.New("flows: name is required")
	ErrInvalidRating = errors.New("flows: rating must be between 1 and 10")
	ErrEmptyComment  = errors.New("flows: comment is required")
	ErrConnection    = errors.New("flows: room connection lost")
	ErrUnknownRoom   = errors.New("flows: not serving this room")
)

// Backend is the part of the REST gateway the pages use.
type Backend interface {
	CreateRoom(ctx context.Context) (string, error)
	RoomStatus(ctx context.Context, pin string) (*api.RoomStatus, error)
	Join(ctx context.Context, pin string, s models.Student) error
	Panel(ctx context.Context, pin string) ([]models.Student, error)
	StartActivity(ctx context.Context, pin string) error
	SubmitFeedback(ctx context.Context, pin, studentID string, rating int, comment string) error
	Feedbacks(ctx context.Context, pin string) ([]models.Feedback, error)
}

// Sessions persists what the pages learn so later commands can pick it up.
type Sessions interface {
	SaveSession(ctx context.Context, sess *models.RoomSession) error
	StudentSession(ctx context.Context, pin string) (*models.RoomSession, error)
	MarkStarted(ctx context.Context, pin string, at time.Time) error
	SetQuestion(ctx context.Context, pin, question string) error
	SaveFeedbacks(ctx context.Context, pin string, list []models.Feedback) (int64, error)
}

// App wires the pages together. Store and OnEvent are optional.
type App struct {
	API           Backend
	Store         Sessions
	Notify        notify.Notifier
	Dial          ws.DialFunc
	SocketBaseURL string
	// FrontendBaseURL is where join links point.
	FrontendBaseURL string
	RedirectDelay time.Duration
	Log           logrus.FieldLogger
	// OnEvent sees every socket event a page receives, before the page acts on it.
	OnEvent func(ev ws.Event)
}

func (a *App) log() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

func (a *App) dial(ctx context.Context, opts ws.Options) (ws.RoomSession, error) {
	opts.BaseURL = a.SocketBaseURL
	opts.Log = a.log()
	dial := a.Dial
	if dial == nil {
		dial = ws.DialRoom
	}
	return dial(ctx, opts)
}

// pump feeds session events to handle until handle asks for another page.
func (a *App) pump(ctx context.Context, sess ws.RoomSession, handle func(ws.Event) (nav.Route, bool, error)) (nav.Route, error) {
	for {
		select {
		case <-ctx.Done():
			return nav.Route{}, ctx.Err()
		case ev, ok := <-sess.Events():
			if !ok {
				return nav.Home(), ErrConnection
			}
			a.observe(ev)
			if next, done, err := handle(ev); done {
				return next, err
			}
		}
	}
}

func (a *App) observe(ev ws.Event) {
	if a.OnEvent != nil {
		a.OnEvent(ev)
	}
}

// failRequest raises the notification for a failed backend call. Responses
// from the server show its message; anything else counts as a network error.
func (a *App) failRequest(err error, prefix, fallback, network string) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		a.Notify.Error(prefix + ": " + api.ServerMessage(err, fallback))
		return
	}
	a.Notify.Error(network)
}

// guard sends pages opened without their required state back home.
func (a *App) guard(r nav.Route) error {
	err := r.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nav.ErrMissingPIN):
		a.Notify.Error("Room PIN not found. Returning to the start page.")
	case errors.Is(err, nav.ErrMissingStudentID):
		a.Notify.Error("Student not identified. Returning to the start page.")
	default:
		a.Notify.Error("Page not found. Returning to the start page.")
	}
	return err
}

func (a *App) persist(ctx context.Context, fn func(Sessions) error) {
	if a.Store == nil {
		return
	}
	if err := fn(a.Store); err != nil {
		a.log().WithError(err).Warn("local store update failed")
	}
}

// Completed is the thank-you page: it waits RedirectDelay and returns home.
func (a *App) Completed(ctx context.Context, r nav.Route) (nav.Route, error) {
	delay := a.RedirectDelay
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nav.Home(), nil
	case <-ctx.Done():
		return nav.Home(), ctx.Err()
	}
}
