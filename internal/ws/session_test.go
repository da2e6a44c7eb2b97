package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zaqqye/feedhub_v1/internal/api"
	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/testutil"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

const testPIN = "482913"

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func wsBase(b *testutil.Backend) string {
	return "ws://" + strings.TrimPrefix(b.URL(), "http://")
}

func dial(t *testing.T, b *testutil.Backend, opts ws.Options) *ws.Session {
	t.Helper()
	opts.PIN = testPIN
	opts.BaseURL = wsBase(b)
	opts.Log = quietLogger()
	s, err := ws.Dial(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, b.WaitConnections(testPIN, 1, 2*time.Second))
	return s
}

// waitFor drains events until one matches, failing after a timeout.
func waitFor[T ws.Event](t *testing.T, s *ws.Session) T {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			require.True(t, ok, "events channel closed early")
			if match, ok := ev.(T); ok {
				return match
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestDialValidatesOptions(t *testing.T) {
	_, err := ws.Dial(context.Background(), ws.Options{Role: models.RoleTeacher, BaseURL: "ws://localhost"})
	assert.ErrorIs(t, err, ws.ErrMissingPIN)

	_, err = ws.Dial(context.Background(), ws.Options{PIN: testPIN, Role: models.RoleStudent, BaseURL: "ws://localhost"})
	assert.ErrorIs(t, err, ws.ErrMissingStudentID)

	_, err = ws.Dial(context.Background(), ws.Options{PIN: testPIN, Role: models.RoleTeacher})
	assert.ErrorIs(t, err, ws.ErrMissingBaseURL)
}

func TestSocketURL(t *testing.T) {
	u, err := ws.SocketURL("ws://example.test/", testPIN, "")
	require.NoError(t, err)
	assert.Equal(t, "ws://example.test/ws/rooms/482913", u)

	u, err = ws.SocketURL("wss://example.test", testPIN, "k3j9x0abcde")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.test/ws/rooms/482913?student_id=k3j9x0abcde", u)
}

func TestSessionSeedsRosterAndFeedbacks(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	client := api.NewClient(b.URL(), 2*time.Second, quietLogger())
	ctx := context.Background()
	require.NoError(t, client.Join(ctx, testPIN, models.Student{StudentID: "ana01", Name: "Ana", AvatarColor: "#FFB3BA"}))
	require.NoError(t, client.SubmitFeedback(ctx, testPIN, "ana01", 9, "Great class"))

	s := dial(t, b, ws.Options{Role: models.RoleTeacher, Seeder: client, SeedFeedbacks: true})
	defer s.Close()

	waitFor[ws.Opened](t, s)
	roster := waitFor[ws.RosterChanged](t, s)
	require.Len(t, roster.Students, 1)
	assert.Equal(t, "Ana", roster.Students[0].Name)

	added := waitFor[ws.FeedbackAdded](t, s)
	assert.Equal(t, "Great class", added.Feedback.Message)
	assert.Equal(t, 9, added.Feedback.Rating)
	assert.Equal(t, ws.StateOpen, s.ConnState())
}

type failingSeeder struct{ err error }

func (f failingSeeder) Panel(context.Context, string) ([]models.Student, error) { return nil, f.err }

func (f failingSeeder) Feedbacks(context.Context, string) ([]models.Feedback, error) {
	return nil, f.err
}

func nextEvent(t *testing.T, s *ws.Session) ws.Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "events channel closed early")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func TestOpenedPrecedesSeedResults(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	boom := errors.New("panel unavailable")
	s := dial(t, b, ws.Options{Role: models.RoleTeacher, Seeder: failingSeeder{err: boom}})
	defer s.Close()

	assert.IsType(t, ws.Opened{}, nextEvent(t, s))
	failed, ok := nextEvent(t, s).(ws.SeedFailed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, boom)
	assert.Equal(t, ws.StateOpen, s.ConnState())
}

func TestRosterUpdateKeepsValidEntries(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleTeacher})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	b.Broadcast(testPIN, []byte(`{"type":"student-list-update","students":[{"name":"ghost"},{"student-id":"a","name":"Ana"}]}`))
	roster := waitFor[ws.RosterChanged](t, s)
	assert.Equal(t, []models.Student{{StudentID: "a", Name: "Ana"}}, roster.Students)
}

func TestSessionRosterIsReplacedNotMerged(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleTeacher})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	b.Broadcast(testPIN, []byte(`{"type":"student-list-update","students":[{"student-id":"a","name":"Ana"},{"student-id":"b","name":"Bia"}]}`))
	first := waitFor[ws.RosterChanged](t, s)
	assert.Len(t, first.Students, 2)

	b.Broadcast(testPIN, []byte(`{"type":"student-list-update","students":[{"student_id":"c","name":"Caio"}]}`))
	second := waitFor[ws.RosterChanged](t, s)
	require.Len(t, second.Students, 1)
	assert.Equal(t, "c", second.Students[0].StudentID)
	assert.Equal(t, 1, s.State().RosterLen())
}

func TestSessionDropsDuplicateFeedback(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleTeacher, SeedFeedbacks: true})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	frame := []byte(`{"type":"feedback","data":{"studentId":"a","message":"ok","rating":7,"timestamp":1718000000001}}`)
	b.Broadcast(testPIN, frame)
	b.Broadcast(testPIN, frame)
	b.Broadcast(testPIN, []byte(`{"type":"feedback","data":{"studentId":"b","message":"nice","rating":"10","timestamp":1718000000002}}`))

	first := waitFor[ws.FeedbackAdded](t, s)
	second := waitFor[ws.FeedbackAdded](t, s)
	assert.Equal(t, "a", first.Feedback.StudentID)
	assert.Equal(t, "b", second.Feedback.StudentID)
	assert.Equal(t, 10, second.Feedback.Rating)
	assert.Len(t, s.State().Feedbacks(), 2)
}

func TestSessionIgnoresUnknownFrames(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleStudent, StudentID: "ana01"})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	b.Broadcast(testPIN, []byte(`{"type":"party-mode"}`))
	b.Broadcast(testPIN, []byte(`not json`))
	b.Broadcast(testPIN, []byte(`{"type":"start"}`))

	waitFor[ws.ActivityStarted](t, s)
	assert.True(t, s.State().Started())
	assert.Equal(t, ws.StateOpen, s.ConnState())
}

func TestStudentSessionReceivesStartActivity(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleStudent, StudentID: "ana01"})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	client := api.NewClient(b.URL(), 2*time.Second, quietLogger())
	require.NoError(t, client.StartActivity(context.Background(), testPIN))

	waitFor[ws.ActivityStarted](t, s)
}

func TestTeacherBroadcastsQuestionAndStart(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleTeacher})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	ctx := context.Background()
	require.NoError(t, s.UpdateQuestion(ctx, "What did you learn today?"))
	changed := waitFor[ws.QuestionChanged](t, s)
	assert.Equal(t, "What did you learn today?", changed.Question)
	assert.Equal(t, "What did you learn today?", b.Question(testPIN))

	require.NoError(t, s.StartActivity(ctx))
	assert.True(t, s.State().Started())
	require.Eventually(t, func() bool {
		for _, frame := range b.Inbound() {
			var msg struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(frame, &msg) == nil && msg.Type == "activity-started" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStudentCannotBroadcast(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleStudent, StudentID: "ana01"})
	defer s.Close()

	assert.ErrorIs(t, s.StartActivity(context.Background()), ws.ErrNotTeacher)
	assert.ErrorIs(t, s.UpdateQuestion(context.Background(), "hi"), ws.ErrNotTeacher)
	assert.Empty(t, b.Inbound())
}

func TestSessionReportsServerClose(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)

	s := dial(t, b, ws.Options{Role: models.RoleTeacher})
	defer s.Close()
	waitFor[ws.Opened](t, s)

	b.DropConnections(testPIN)
	closed := waitFor[ws.Closed](t, s)
	assert.Error(t, closed.Err)
	assert.Equal(t, ws.StateClosed, s.ConnState())

	_, open := <-s.Events()
	assert.False(t, open)
	assert.ErrorIs(t, s.StartActivity(context.Background()), ws.ErrClosed)
}

func TestCloseStopsGoroutines(t *testing.T) {
	b := testutil.NewBackend()
	defer b.Close()
	b.AddRoom(testPIN)
	ignore := goleak.IgnoreCurrent()

	s := dial(t, b, ws.Options{Role: models.RoleTeacher})
	waitFor[ws.Opened](t, s)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, ws.StateClosed, s.ConnState())

	var last ws.Event
	for ev := range s.Events() {
		last = ev
	}
	if closed, ok := last.(ws.Closed); ok {
		assert.NoError(t, closed.Err)
	}
	require.Eventually(t, func() bool { return b.Connections(testPIN) == 0 }, 2*time.Second, 10*time.Millisecond)
	goleak.VerifyNone(t, ignore)
}
