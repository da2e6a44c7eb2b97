package models

import (
	"encoding/json"
	"errors"
)

// Feedback is one submitted rating and comment as the dashboard receives it.
type Feedback struct {
	StudentID string `json:"studentId"`
	Message   string `json:"message"`
	Rating    int    `json:"rating"`
	Timestamp int64  `json:"timestamp"`
	PIN       string `json:"pin,omitempty"`
}

// FeedbackKey identifies a feedback entry for de-duplication.
type FeedbackKey struct {
	StudentID string
	Timestamp int64
}

var ErrMissingFeedbackAuthor = errors.New("feedback entry without a student id")

func (f Feedback) Key() FeedbackKey {
	return FeedbackKey{StudentID: f.StudentID, Timestamp: f.Timestamp}
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	var raw struct {
		CamelID   FlexibleString `json:"studentId"`
		KebabID   FlexibleString `json:"student-id"`
		SnakeID   FlexibleString `json:"student_id"`
		Message   string         `json:"message"`
		Comment   string         `json:"comment"`
		Rating    FlexibleInt    `json:"rating"`
		Timestamp FlexibleInt    `json:"timestamp"`
		PIN       FlexibleString `json:"pin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := firstNonEmpty(raw.CamelID.String(), raw.KebabID.String(), raw.SnakeID.String())
	if id == "" {
		return ErrMissingFeedbackAuthor
	}
	msg := raw.Message
	if msg == "" {
		msg = raw.Comment
	}
	*f = Feedback{
		StudentID: id,
		Message:   msg,
		Rating:    int(raw.Rating),
		Timestamp: int64(raw.Timestamp),
		PIN:       raw.PIN.String(),
	}
	return nil
}
