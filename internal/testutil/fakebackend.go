// Package testutil provides an in-process FeedHub backend for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type student struct {
	StudentID   string `json:"student-id"`
	Name        string `json:"name"`
	AvatarColor string `json:"avatar-color"`
}

type feedback struct {
	StudentID string `json:"studentId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Rating    int    `json:"rating"`
}

type peer struct {
	conn      *websocket.Conn
	studentID string
	mu        sync.Mutex
}

func (p *peer) write(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

type room struct {
	students  []student
	feedbacks []feedback
	question  string
	started   bool
	peers     map[*peer]struct{}
}

// Backend implements the REST and WebSocket contract of the FeedHub backend.
type Backend struct {
	Server *httptest.Server

	mu      sync.Mutex
	rooms   map[string]*room
	nextPIN int
	clock   int64
	calls   map[string]int
	inbound [][]byte
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewBackend() *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		rooms:   map[string]*room{},
		nextPIN: 482913,
		clock:   1718000000000,
		calls:   map[string]int{},
	}
	r := gin.New()
	r.POST("/api/rooms", b.createRoom)
	r.GET("/api/rooms/:pin/status", b.status)
	r.POST("/api/rooms/:pin/join", b.join)
	r.GET("/api/rooms/:pin/panel", b.panel)
	r.POST("/api/rooms/:pin/start", b.start)
	r.POST("/api/rooms/:pin/feedback", b.submitFeedback)
	r.GET("/api/rooms/:pin/feedbacks", b.listFeedbacks)
	r.GET("/ws/rooms/:pin", b.socket)
	b.Server = httptest.NewServer(r)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

// Close drops every socket and stops the server.
func (b *Backend) Close() {
	b.mu.Lock()
	for _, rm := range b.rooms {
		for p := range rm.peers {
			p.conn.Close()
		}
	}
	b.mu.Unlock()
	b.Server.Close()
}

// AddRoom registers a room with a fixed PIN.
func (b *Backend) AddRoom(pin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms[pin] = &room{peers: map[*peer]struct{}{}}
}

// Calls reports how often a route name ("join", "feedback", ...) was hit.
func (b *Backend) Calls(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

// Inbound returns the frames clients sent over the socket.
func (b *Backend) Inbound() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.inbound))
	copy(out, b.inbound)
	return out
}

func (b *Backend) Question(pin string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rm, ok := b.rooms[pin]; ok {
		return rm.question
	}
	return ""
}

func (b *Backend) Started(pin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	rm, ok := b.rooms[pin]
	return ok && rm.started
}

// Connections returns the number of open sockets in a room.
func (b *Backend) Connections(pin string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rm, ok := b.rooms[pin]; ok {
		return len(rm.peers)
	}
	return 0
}

// WaitConnections polls until the room has n sockets or the timeout passes.
func (b *Backend) WaitConnections(pin string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if b.Connections(pin) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Broadcast sends a raw frame to every socket in the room.
func (b *Backend) Broadcast(pin string, frame []byte) {
	b.mu.Lock()
	rm, ok := b.rooms[pin]
	var peers []*peer
	if ok {
		for p := range rm.peers {
			peers = append(peers, p)
		}
	}
	b.mu.Unlock()
	for _, p := range peers {
		_ = p.write(frame)
	}
}

// DropConnections closes every socket in the room from the server side.
func (b *Backend) DropConnections(pin string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rm, ok := b.rooms[pin]; ok {
		for p := range rm.peers {
			p.conn.Close()
		}
	}
}

func (b *Backend) hit(name string) {
	b.mu.Lock()
	b.calls[name]++
	b.mu.Unlock()
}

func (b *Backend) lookup(c *gin.Context) (*room, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rm, ok := b.rooms[c.Param("pin")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Sala não encontrada"})
	}
	return rm, ok
}

func (b *Backend) createRoom(c *gin.Context) {
	b.hit("create")
	b.mu.Lock()
	pin := fmt.Sprintf("%06d", b.nextPIN)
	b.nextPIN++
	b.rooms[pin] = &room{peers: map[*peer]struct{}{}}
	b.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"pin": pin})
}

func (b *Backend) status(c *gin.Context) {
	b.hit("status")
	if _, ok := b.lookup(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"pin": c.Param("pin"), "status": "waiting", "active": true})
}

func (b *Backend) join(c *gin.Context) {
	b.hit("join")
	rm, ok := b.lookup(c)
	if !ok {
		return
	}
	var req struct {
		StudentID   string `json:"student_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		AvatarColor string `json:"avatar_color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	b.mu.Lock()
	rm.students = append(rm.students, student{StudentID: req.StudentID, Name: req.Name, AvatarColor: req.AvatarColor})
	frame, _ := json.Marshal(gin.H{"type": "student-list-update", "students": rm.students})
	b.mu.Unlock()
	b.Broadcast(c.Param("pin"), frame)
	c.JSON(http.StatusOK, gin.H{"message": "joined"})
}

func (b *Backend) panel(c *gin.Context) {
	b.hit("panel")
	rm, ok := b.lookup(c)
	if !ok {
		return
	}
	b.mu.Lock()
	students := append([]student{}, rm.students...)
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"connected-students": students})
}

func (b *Backend) start(c *gin.Context) {
	b.hit("start")
	rm, ok := b.lookup(c)
	if !ok {
		return
	}
	var req struct {
		From string `json:"from"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.From != "teacher" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "only the teacher can start"})
		return
	}
	b.mu.Lock()
	rm.started = true
	b.mu.Unlock()
	b.Broadcast(c.Param("pin"), []byte(`{"type":"start-activity"}`))
	c.JSON(http.StatusOK, gin.H{"message": "started"})
}

func (b *Backend) submitFeedback(c *gin.Context) {
	b.hit("feedback")
	rm, ok := b.lookup(c)
	if !ok {
		return
	}
	var req struct {
		StudentID string `json:"student-id"`
		PIN       string `json:"pin"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.StudentID == "" || req.Rating < 1 || req.Rating > 10 || strings.TrimSpace(req.Comment) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "feedback inválido"})
		return
	}
	b.mu.Lock()
	for _, fb := range rm.feedbacks {
		if fb.StudentID == req.StudentID {
			b.mu.Unlock()
			c.JSON(http.StatusConflict, gin.H{"message": "feedback já enviado"})
			return
		}
	}
	b.clock++
	fb := feedback{StudentID: req.StudentID, Message: req.Comment, Timestamp: b.clock, Rating: req.Rating}
	rm.feedbacks = append(rm.feedbacks, fb)
	frame, _ := json.Marshal(gin.H{"type": "feedback", "data": fb})
	b.mu.Unlock()
	b.Broadcast(c.Param("pin"), frame)
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (b *Backend) listFeedbacks(c *gin.Context) {
	b.hit("feedbacks")
	rm, ok := b.lookup(c)
	if !ok {
		return
	}
	b.mu.Lock()
	out := append([]feedback{}, rm.feedbacks...)
	b.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"feedbacks": out})
}

func (b *Backend) socket(c *gin.Context) {
	rm, ok := b.lookup(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	p := &peer{conn: conn, studentID: c.Query("student_id")}
	pin := c.Param("pin")
	b.mu.Lock()
	rm.peers[p] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(rm.peers, p)
		b.mu.Unlock()
		conn.Close()
	}()
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		b.mu.Lock()
		b.inbound = append(b.inbound, frame)
		var msg struct {
			Type     string `json:"type"`
			Question string `json:"question"`
		}
		_ = json.Unmarshal(frame, &msg)
		if msg.Type == "question-update" {
			rm.question = msg.Question
		}
		b.mu.Unlock()
		if msg.Type == "question-update" {
			b.Broadcast(pin, frame)
		}
	}
}
