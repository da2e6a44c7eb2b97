// Package ws owns the room WebSocket: the per-page client Session and the
// hub that relays room events to local dashboard viewers.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/protocol"
	"github.com/zaqqye/feedhub_v1/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 16
	eventBuffer    = 64
)

var (
	ErrClosed           = errors.New("ws: session closed")
	ErrNotTeacher       = errors.New("ws: only the teacher session can broadcast")
	ErrMissingPIN       = errors.New("ws: room pin is required")
	ErrMissingStudentID = errors.New("ws: student_id is required for student sessions")
	ErrMissingBaseURL   = errors.New("ws: websocket base url is required")
)

// ConnState is the lifecycle of one connection. There is no way back from
// StateClosed; a new page opens a new Session.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// Seeder fetches the REST snapshot applied right after the socket opens.
type Seeder interface {
	Panel(ctx context.Context, pin string) ([]models.Student, error)
	Feedbacks(ctx context.Context, pin string) ([]models.Feedback, error)
}

// RoomSession is what pages depend on.
type RoomSession interface {
	Events() <-chan Event
	State() *room.State
	ConnState() ConnState
	StartActivity(ctx context.Context) error
	UpdateQuestion(ctx context.Context, question string) error
	Close() error
}

// DialFunc opens a RoomSession.
type DialFunc func(ctx context.Context, opts Options) (RoomSession, error)

type Options struct {
	PIN       string
	Role      models.Role
	StudentID string
	BaseURL   string // ws://host or wss://host
	Seeder    Seeder
	// SeedFeedbacks also loads the feedback list on open (dashboard pages).
	SeedFeedbacks bool
	Log           logrus.FieldLogger
	Dialer        *websocket.Dialer
}

// Session is one WebSocket connection to a room, owned by one page.
type Session struct {
	opts  Options
	log   logrus.FieldLogger
	conn  *websocket.Conn
	state *room.State

	mu        sync.Mutex
	connState ConnState

	events     chan Event
	send       chan []byte
	done       chan struct{} // Close was called
	readerDone chan struct{} // read loop exited
	seedCtx    context.Context
	cancelSeed context.CancelFunc
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

var _ RoomSession = (*Session)(nil)

// SocketURL builds ws(s)://host/ws/rooms/{pin}[?student_id=...].
func SocketURL(base, pin, studentID string) (string, error) {
	if base == "" {
		return "", ErrMissingBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + "/ws/rooms/" + url.PathEscape(pin))
	if err != nil {
		return "", err
	}
	if studentID != "" {
		q := u.Query()
		q.Set("student_id", studentID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Dial connects and starts the pumps. The REST seed is applied on the read
// goroutine; its results arrive as events after Opened.
func Dial(ctx context.Context, opts Options) (*Session, error) {
	if opts.PIN == "" {
		return nil, ErrMissingPIN
	}
	if opts.Role == models.RoleStudent && opts.StudentID == "" {
		return nil, ErrMissingStudentID
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	studentID := ""
	if opts.Role == models.RoleStudent {
		studentID = opts.StudentID
	}
	target, err := SocketURL(opts.BaseURL, opts.PIN, studentID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		opts:       opts,
		log:        opts.Log.WithFields(logrus.Fields{"pin": opts.PIN, "role": opts.Role}),
		state:      room.NewState(opts.PIN),
		connState:  StateConnecting,
		events:     make(chan Event, eventBuffer),
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	s.seedCtx, s.cancelSeed = context.WithCancel(context.Background())
	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		s.cancelSeed()
		s.setConnState(StateClosed)
		if resp != nil {
			return nil, fmt.Errorf("ws: dial %s: %w (status %d)", opts.PIN, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("ws: dial %s: %w", opts.PIN, err)
	}
	s.conn = conn
	s.setConnState(StateOpen)
	s.log.Info("room socket open")

	s.wg.Add(2)
	go s.writePump()
	go s.readPump()
	return s, nil
}

// DialRoom adapts Dial to DialFunc.
func DialRoom(ctx context.Context, opts Options) (RoomSession, error) {
	return Dial(ctx, opts)
}

// seed runs on the read goroutine before the first frame is read, so frames
// that arrive meanwhile are applied on top of the snapshot.
func (s *Session) seed(ctx context.Context) {
	if s.opts.Seeder == nil {
		return
	}
	students, err := s.opts.Seeder.Panel(ctx, s.opts.PIN)
	if err != nil {
		s.log.WithError(err).Warn("panel snapshot failed")
		s.emit(SeedFailed{Err: err})
	} else {
		s.state.ReplaceRoster(students)
		s.emit(RosterChanged{Students: s.state.Roster()})
	}
	if !s.opts.SeedFeedbacks {
		return
	}
	list, err := s.opts.Seeder.Feedbacks(ctx, s.opts.PIN)
	if err != nil {
		s.log.WithError(err).Warn("feedback snapshot failed")
		s.emit(SeedFailed{Err: err})
		return
	}
	for _, f := range s.state.MergeFeedbacks(list) {
		s.emit(FeedbackAdded{Feedback: f})
	}
}

func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) State() *room.State { return s.state }

func (s *Session) ConnState() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connState
}

func (s *Session) setConnState(st ConnState) {
	s.mu.Lock()
	s.connState = st
	s.mu.Unlock()
}

// StartActivity broadcasts {"type":"activity-started"} to the room.
func (s *Session) StartActivity(ctx context.Context) error {
	if s.opts.Role != models.RoleTeacher {
		return ErrNotTeacher
	}
	frame, err := protocol.EncodeActivityStarted()
	if err != nil {
		return err
	}
	if err := s.enqueue(ctx, frame); err != nil {
		return err
	}
	s.state.MarkStarted()
	return nil
}

// UpdateQuestion broadcasts the new question and applies it locally.
func (s *Session) UpdateQuestion(ctx context.Context, question string) error {
	if s.opts.Role != models.RoleTeacher {
		return ErrNotTeacher
	}
	frame, err := protocol.EncodeQuestionUpdate(question)
	if err != nil {
		return err
	}
	if err := s.enqueue(ctx, frame); err != nil {
		return err
	}
	s.state.SetQuestion(question)
	return nil
}

func (s *Session) enqueue(ctx context.Context, frame []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	case <-s.readerDone:
		return ErrClosed
	default:
	}
	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return ErrClosed
	case <-s.readerDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends a close frame, tears the connection down and waits for the
// pumps. Calling it more than once is safe.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancelSeed()
	})
	s.wg.Wait()
	return nil
}

// emit delivers ev unless the page has already closed the session.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Session) readPump() {
	var cause error
	defer func() {
		close(s.readerDone)
		s.cancelSeed()
		s.conn.Close()
		s.setConnState(StateClosed)
		select {
		case <-s.done:
			cause = nil
		default:
		}
		if cause != nil {
			s.log.WithError(cause).Warn("room socket closed")
		} else {
			s.log.Info("room socket closed")
		}
		s.emit(Closed{Err: cause})
		close(s.events)
		s.wg.Done()
	}()

	s.emit(Opened{})
	s.seed(s.seedCtx)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		messageType, frame, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				cause = err
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.log.Debugf("ignoring non-text frame type %d", messageType)
			continue
		}
		msg, err := protocol.Decode(frame)
		if err != nil {
			s.log.WithError(err).Warn("dropping unrecognised message")
			continue
		}
		s.apply(msg)
	}
}

func (s *Session) apply(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.StudentListUpdate:
		for _, err := range m.Skipped {
			s.log.WithError(err).Warn("dropping malformed roster entry")
		}
		s.state.ReplaceRoster(m.Students)
		s.emit(RosterChanged{Students: s.state.Roster()})
	case protocol.QuestionUpdate:
		s.state.SetQuestion(m.Question)
		s.emit(QuestionChanged{Question: m.Question})
	case protocol.ActivityStarted:
		s.state.MarkStarted()
		s.emit(ActivityStarted{})
	case protocol.FeedbackPush:
		if s.state.AddFeedback(m.Feedback) {
			s.emit(FeedbackAdded{Feedback: m.Feedback})
		} else {
			s.log.WithField("student_id", m.Feedback.StudentID).Debug("duplicate feedback ignored")
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		s.wg.Done()
	}()
	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.WithError(err).Warn("failed to write message")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-s.readerDone:
			return
		}
	}
}
