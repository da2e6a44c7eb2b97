package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/utils"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// EnterPIN is the home page's "join room" action. Input is sanitized first;
// an incomplete PIN never reaches the network.
func (a *App) EnterPIN(ctx context.Context, raw string) (nav.Route, error) {
	pin := utils.SanitizePIN(raw)
	if err := utils.ValidatePIN(pin); err != nil {
		a.Notify.Error("Please enter a valid 6-digit room PIN.")
		return nav.Home(), ErrInvalidPIN
	}
	if _, err := a.API.RoomStatus(ctx, pin); err != nil {
		a.failRequest(err, "Could not verify PIN", "Invalid PIN or room not found.",
			"Network error while checking the PIN. Try again.")
		return nav.Home(), err
	}
	a.Notify.Success("You entered the room!")
	return nav.Route{Page: nav.PageJoin, PIN: pin}, nil
}

// Join registers the student. color may be empty (random pick), a palette
// name or a #RRGGBB value. The student_id generated here is carried by every
// later page.
func (a *App) Join(ctx context.Context, r nav.Route, name, color string) (nav.Route, error) {
	if err := a.guard(r); err != nil {
		return nav.Home(), err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		a.Notify.Error("Please enter your name.")
		return r, ErrNameRequired
	}

	var err error
	if color == "" {
		color, err = utils.PickAvatarColor()
	} else {
		color, err = utils.ResolveColor(color)
	}
	if err != nil {
		a.Notify.Error("Unknown avatar colour.")
		return r, err
	}
	studentID, err := utils.GenerateStudentID()
	if err != nil {
		a.Notify.Error("Could not create a student identity.")
		return r, err
	}

	student := models.Student{StudentID: studentID, Name: name, AvatarColor: color}
	if err := a.API.Join(ctx, r.PIN, student); err != nil {
		a.failRequest(err, "Could not join the room", "Unknown error.",
			"Network error while joining the room. Try again.")
		return r, err
	}
	a.log().WithFields(logrus.Fields{"pin": r.PIN, "student_id": studentID}).Info("joined room")
	a.persist(ctx, func(s Sessions) error {
		return s.SaveSession(ctx, &models.RoomSession{
			PIN:         r.PIN,
			Role:        models.RoleStudent,
			StudentID:   studentID,
			Name:        name,
			AvatarColor: color,
		})
	})
	return nav.Route{Page: nav.PageWaiting, PIN: r.PIN, StudentID: studentID, Name: name, Color: color}, nil
}

// Wait is the waiting page: it holds a student socket open until the teacher
// starts the activity, then moves on to the feedback form. Question updates
// are announced and the latest one travels to the form.
func (a *App) Wait(ctx context.Context, r nav.Route) (nav.Route, error) {
	if err := a.guard(r); err != nil {
		return nav.Home(), err
	}
	sess, err := a.dial(ctx, ws.Options{PIN: r.PIN, Role: models.RoleStudent, StudentID: r.StudentID})
	if err != nil {
		a.Notify.Error("Could not connect to the room.")
		return nav.Home(), err
	}
	defer sess.Close()

	next := nav.Route{Page: nav.PageFeedback, PIN: r.PIN, StudentID: r.StudentID, Name: r.Name, Color: r.Color}
	route, err := a.pump(ctx, sess, func(ev ws.Event) (nav.Route, bool, error) {
		switch e := ev.(type) {
		case ws.QuestionChanged:
			next.Question = e.Question
			if e.Question != "" {
				a.Notify.Info("Question from the teacher: " + e.Question)
			}
		case ws.ActivityStarted:
			if next.Question == "" {
				next.Question = sess.State().Question()
			}
			a.Notify.Info("The activity has started!")
			return next, true, nil
		case ws.Closed:
			a.Notify.Error("Connection to the room was closed.")
			return nav.Home(), true, closedErr(e)
		}
		return nav.Route{}, false, nil
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return r, err
	}
	return route, err
}

// SubmitFeedback is the feedback form. A blank comment or an out-of-range
// rating is rejected before any request is made.
func (a *App) SubmitFeedback(ctx context.Context, r nav.Route, rating int, comment string) (nav.Route, error) {
	if err := a.guard(r); err != nil {
		return nav.Home(), err
	}
	if rating < MinRating || rating > MaxRating {
		a.Notify.Error("Please choose a rating between 1 and 10.")
		return r, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		a.Notify.Error("Please write a comment before sending.")
		return r, ErrEmptyComment
	}
	if err := a.API.SubmitFeedback(ctx, r.PIN, r.StudentID, rating, comment); err != nil {
		a.failRequest(err, "Could not send feedback", "Unknown error.",
			"Network error while sending feedback. Try again.")
		return r, err
	}
	a.Notify.Success("Feedback sent. Thank you!")
	return nav.Route{Page: nav.PageCompleted, PIN: r.PIN}, nil
}

// ResumeStudent rebuilds the waiting route for the last identity this client
// used in pin.
func (a *App) ResumeStudent(ctx context.Context, pin string) (nav.Route, error) {
	if a.Store == nil {
		return nav.Home(), nav.ErrMissingStudentID
	}
	sess, err := a.Store.StudentSession(ctx, pin)
	if err != nil {
		return nav.Home(), err
	}
	return nav.Route{
		Page:      nav.PageWaiting,
		PIN:       sess.PIN,
		StudentID: sess.StudentID,
		Name:      sess.Name,
		Color:     sess.AvatarColor,
	}, nil
}
