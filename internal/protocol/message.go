// Package protocol defines the JSON messages exchanged on the room WebSocket.
//
// Inbound frames are decoded into one of a closed set of Message variants.
// Frames with an unknown type or a payload that does not fit the type are
// rejected so callers never act on guessed structure.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zaqqye/feedhub_v1/internal/models"
)

// Wire type names.
const (
	TypeStudentListUpdate = "student-list-update"
	TypeStartActivity     = "start-activity"
	TypeStart             = "start"
	TypeActivityStarted   = "activity-started"
	TypeQuestionUpdate    = "question-update"
	TypeFeedback          = "feedback"
)

var (
	ErrUnknownType      = errors.New("protocol: unknown message type")
	ErrMissingType      = errors.New("protocol: message without type")
	ErrMalformedPayload = errors.New("protocol: malformed payload")
)

// Message is implemented by every inbound variant.
type Message interface {
	Type() string
	isMessage()
}

// StudentListUpdate replaces the whole roster. Skipped holds the entries
// that could not be decoded and were left out of Students.
type StudentListUpdate struct {
	Students []models.Student
	Skipped  []error
}

// ActivityStarted is the teacher's start signal. Kind keeps the wire name
// because three spellings are in use.
type ActivityStarted struct {
	Kind string
}

// QuestionUpdate replaces the room question text.
type QuestionUpdate struct {
	Question string
}

// FeedbackPush carries one new feedback entry for the dashboard.
type FeedbackPush struct {
	Feedback models.Feedback
}

func (StudentListUpdate) Type() string { return TypeStudentListUpdate }
func (m ActivityStarted) Type() string { return m.Kind }
func (QuestionUpdate) Type() string    { return TypeQuestionUpdate }
func (FeedbackPush) Type() string      { return TypeFeedback }

func (StudentListUpdate) isMessage() {}
func (ActivityStarted) isMessage()   {}
func (QuestionUpdate) isMessage()    {}
func (FeedbackPush) isMessage()      {}

type envelope struct {
	Type     string          `json:"type"`
	Students json.RawMessage `json:"students"`
	Question *string         `json:"question"`
	Data     json.RawMessage `json:"data"`
}

// Decode parses one inbound frame.
func Decode(frame []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	switch env.Type {
	case "":
		return nil, ErrMissingType
	case TypeStudentListUpdate:
		if len(env.Students) == 0 || string(env.Students) == "null" {
			return StudentListUpdate{Students: []models.Student{}}, nil
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(env.Students, &raw); err != nil {
			return nil, fmt.Errorf("%w: students: %v", ErrMalformedPayload, err)
		}
		students, skipped := models.DecodeEach[models.Student](raw)
		return StudentListUpdate{Students: students, Skipped: skipped}, nil
	case TypeStartActivity, TypeStart, TypeActivityStarted:
		return ActivityStarted{Kind: env.Type}, nil
	case TypeQuestionUpdate:
		if env.Question == nil {
			return nil, fmt.Errorf("%w: question-update without question", ErrMalformedPayload)
		}
		return QuestionUpdate{Question: *env.Question}, nil
	case TypeFeedback:
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil, fmt.Errorf("%w: feedback without data", ErrMalformedPayload)
		}
		var fb models.Feedback
		if err := json.Unmarshal(env.Data, &fb); err != nil {
			return nil, fmt.Errorf("%w: feedback: %v", ErrMalformedPayload, err)
		}
		return FeedbackPush{Feedback: fb}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Outbound frames.

type activityStartedFrame struct {
	Type string `json:"type"`
}

type questionUpdateFrame struct {
	Type     string `json:"type"`
	Question string `json:"question"`
}

type studentListFrame struct {
	Type     string           `json:"type"`
	Students []models.Student `json:"students"`
}

type feedbackFrame struct {
	Type string          `json:"type"`
	Data models.Feedback `json:"data"`
}

// Encode renders any variant in its wire form. Used to relay inbound messages
// to local dashboard viewers.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case StudentListUpdate:
		students := v.Students
		if students == nil {
			students = []models.Student{}
		}
		return json.Marshal(studentListFrame{Type: TypeStudentListUpdate, Students: students})
	case ActivityStarted:
		kind := v.Kind
		if kind == "" {
			kind = TypeActivityStarted
		}
		return json.Marshal(activityStartedFrame{Type: kind})
	case QuestionUpdate:
		return EncodeQuestionUpdate(v.Question)
	case FeedbackPush:
		return json.Marshal(feedbackFrame{Type: TypeFeedback, Data: v.Feedback})
	case nil:
		return nil, ErrMissingType
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
}

// EncodeActivityStarted builds {"type":"activity-started"}.
func EncodeActivityStarted() ([]byte, error) {
	return json.Marshal(activityStartedFrame{Type: TypeActivityStarted})
}

// EncodeQuestionUpdate builds {"type":"question-update","question":...}.
func EncodeQuestionUpdate(question string) ([]byte, error) {
	return json.Marshal(questionUpdateFrame{Type: TypeQuestionUpdate, Question: question})
}
