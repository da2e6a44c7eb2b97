package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/protocol"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

func startHub(t *testing.T) (*ws.DashboardHub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := ws.NewDashboardHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/rooms/:pin", ws.DashboardHandler(hub))
	return hub, httptest.NewServer(r), cancel
}

func viewer(t *testing.T, srv *httptest.Server, pin string) *websocket.Conn {
	t.Helper()
	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/ws/rooms/" + pin
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestDashboardHubRelaysOnlyToMatchingPIN(t *testing.T) {
	hub, srv, cancel := startHub(t)
	defer srv.Close()
	defer cancel()

	mine := viewer(t, srv, testPIN)
	defer mine.Close()
	other := viewer(t, srv, "111222")
	defer other.Close()
	require.Eventually(t, func() bool { return hub.Viewers() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.PublishEvent("111222", ws.QuestionChanged{Question: "other room"})
	hub.PublishEvent(testPIN, ws.FeedbackAdded{Feedback: models.Feedback{StudentID: "a", Message: "ok", Rating: 8, Timestamp: 1}})

	_ = mine.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := mine.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.Decode(frame)
	require.NoError(t, err)
	push, ok := msg.(protocol.FeedbackPush)
	require.True(t, ok)
	assert.Equal(t, "ok", push.Feedback.Message)

	_ = other.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err = other.ReadMessage()
	require.NoError(t, err)
	msg, err = protocol.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, protocol.QuestionUpdate{Question: "other room"}, msg)
}

func TestDashboardHubForgetsClosedViewers(t *testing.T) {
	hub, srv, cancel := startHub(t)
	defer srv.Close()
	defer cancel()

	conn := viewer(t, srv, testPIN)
	require.Eventually(t, func() bool { return hub.Viewers() == 1 }, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Viewers() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestDashboardHubDisconnectsViewersOnShutdown(t *testing.T) {
	hub, srv, cancel := startHub(t)
	defer srv.Close()

	conn := viewer(t, srv, testPIN)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Viewers() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Viewers())

	hub.Publish(testPIN, protocol.QuestionUpdate{Question: "late"})
}

func TestDashboardHandlerRejectsBadPIN(t *testing.T) {
	_, srv, cancel := startHub(t)
	defer srv.Close()
	defer cancel()

	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/ws/rooms/12ab"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}
