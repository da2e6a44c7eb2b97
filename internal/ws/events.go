package ws

import "github.com/zaqqye/feedhub_v1/internal/models"

// Event is what a Session reports to the page that owns it.
type Event interface {
	isEvent()
}

// Opened is sent once the socket is up, before the REST seed runs. The seed
// results follow as RosterChanged, FeedbackAdded or SeedFailed events.
type Opened struct{}

// RosterChanged carries the full new roster.
type RosterChanged struct {
	Students []models.Student
}

type QuestionChanged struct {
	Question string
}

// ActivityStarted tells the page to move on to the next step.
type ActivityStarted struct{}

// FeedbackAdded is sent only for entries that were not already on the dashboard.
type FeedbackAdded struct {
	Feedback models.Feedback
}

// SeedFailed reports a failed REST seed. The socket stays open.
type SeedFailed struct {
	Err error
}

// Closed is the last event. Err is nil when the page closed the session itself.
type Closed struct {
	Err error
}

func (Opened) isEvent()          {}
func (RosterChanged) isEvent()   {}
func (QuestionChanged) isEvent() {}
func (ActivityStarted) isEvent() {}
func (FeedbackAdded) isEvent()   {}
func (SeedFailed) isEvent()      {}
func (Closed) isEvent()          {}
