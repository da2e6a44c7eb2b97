// Package api is the REST gateway to the FeedHub backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/models"
)

const maxBodyBytes = 1 << 20

// Client calls the room endpoints under BaseURL. Requests are never retried.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     logrus.FieldLogger
}

func NewClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

type createRoomResponse struct {
	PIN models.FlexibleString `json:"pin"`
}

type joinRequest struct {
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	AvatarColor string `json:"avatar_color"`
}

type startRequest struct {
	From string `json:"from"`
}

type feedbackRequest struct {
	StudentID string `json:"student-id"`
	PIN       string `json:"pin"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// List bodies are kept raw so each entry decodes on its own.
type panelResponse struct {
	ConnectedStudents []json.RawMessage `json:"connected-students"`
	Students          []json.RawMessage `json:"students"`
}

type feedbacksResponse struct {
	Feedbacks []json.RawMessage `json:"feedbacks"`
}

// RoomStatus is the decoded body of the status endpoint. Fields the backend
// does not send stay zero.
type RoomStatus struct {
	PIN    string `json:"pin"`
	Status string `json:"status"`
	Active bool   `json:"active"`
}

// CreateRoom asks the backend for a new room and returns its PIN.
func (c *Client) CreateRoom(ctx context.Context) (string, error) {
	var out createRoomResponse
	if err := c.do(ctx, http.MethodPost, "/api/rooms", nil, &out); err != nil {
		return "", err
	}
	pin := out.PIN.String()
	if pin == "" {
		return "", fmt.Errorf("%w: create room response without pin", ErrDecode)
	}
	return pin, nil
}

// RoomStatus succeeds when the room exists.
func (c *Client) RoomStatus(ctx context.Context, pin string) (*RoomStatus, error) {
	var out RoomStatus
	if err := c.do(ctx, http.MethodGet, roomPath(pin, "status"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Join(ctx context.Context, pin string, s models.Student) error {
	body := joinRequest{StudentID: s.StudentID, Name: s.Name, AvatarColor: s.AvatarColor}
	return c.do(ctx, http.MethodPost, roomPath(pin, "join"), body, nil)
}

// Panel returns the roster snapshot used to seed a fresh connection.
func (c *Client) Panel(ctx context.Context, pin string) ([]models.Student, error) {
	var out panelResponse
	if err := c.do(ctx, http.MethodGet, roomPath(pin, "panel"), nil, &out); err != nil {
		return nil, err
	}
	raw := out.ConnectedStudents
	if raw == nil {
		raw = out.Students
	}
	students, skipped := models.DecodeEach[models.Student](raw)
	c.logSkipped("panel", pin, skipped)
	return students, nil
}

func (c *Client) StartActivity(ctx context.Context, pin string) error {
	return c.do(ctx, http.MethodPost, roomPath(pin, "start"), startRequest{From: "teacher"}, nil)
}

func (c *Client) SubmitFeedback(ctx context.Context, pin, studentID string, rating int, comment string) error {
	body := feedbackRequest{StudentID: studentID, PIN: pin, Rating: rating, Comment: comment}
	return c.do(ctx, http.MethodPost, roomPath(pin, "feedback"), body, nil)
}

func (c *Client) Feedbacks(ctx context.Context, pin string) ([]models.Feedback, error) {
	var out feedbacksResponse
	if err := c.do(ctx, http.MethodGet, roomPath(pin, "feedbacks"), nil, &out); err != nil {
		return nil, err
	}
	list, skipped := models.DecodeEach[models.Feedback](out.Feedbacks)
	c.logSkipped("feedbacks", pin, skipped)
	return list, nil
}

func (c *Client) logSkipped(endpoint, pin string, skipped []error) {
	for _, err := range skipped {
		c.Log.WithFields(logrus.Fields{"endpoint": endpoint, "pin": pin}).WithError(err).Warn("dropping malformed entry")
	}
}

func roomPath(pin, action string) string {
	return "/api/rooms/" + url.PathEscape(pin) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.BaseURL == "" {
		return ErrNotConfigured
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log := c.Log.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp.StatusCode, raw)
		log.WithField("status", resp.StatusCode).Warn(apiErr.Error())
		return apiErr
	}
	log.WithField("status", resp.StatusCode).Debug("request ok")
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
