package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// Student is the roster entry pushed by the backend.
type Student struct {
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	AvatarColor string `json:"avatar_color"`
}

var ErrMissingStudentID = errors.New("student entry without an id")

// UnmarshalJSON accepts the snake, kebab and camel spellings the backend
// revisions used for the id and colour fields.
func (s *Student) UnmarshalJSON(data []byte) error {
	var raw struct {
		SnakeID    FlexibleString `json:"student_id"`
		KebabID    FlexibleString `json:"student-id"`
		CamelID    FlexibleString `json:"studentId"`
		Name       string         `json:"name"`
		SnakeColor string         `json:"avatar_color"`
		KebabColor string         `json:"avatar-color"`
		CamelColor string         `json:"avatarColor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := firstNonEmpty(raw.SnakeID.String(), raw.KebabID.String(), raw.CamelID.String())
	if id == "" {
		return ErrMissingStudentID
	}
	*s = Student{
		StudentID:   id,
		Name:        strings.TrimSpace(raw.Name),
		AvatarColor: firstNonEmpty(raw.SnakeColor, raw.KebabColor, raw.CamelColor),
	}
	return nil
}

// Initial is the upper-cased first letter shown inside the avatar.
func (s Student) Initial() string {
	for _, r := range s.Name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
