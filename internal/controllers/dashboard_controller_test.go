package controllers

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/gin-gonic/gin"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/zaqqye/feedhub_v1/internal/flows"
    "github.com/zaqqye/feedhub_v1/internal/models"
)

type fakeRoom struct {
    pin       string
    students  []models.Student
    feedbacks []models.Feedback
    err       error
}

func (f *fakeRoom) ListFeedbacks(ctx context.Context, pin string) ([]models.Feedback, error) {
    if f.err != nil {
        return nil, f.err
    }
    if pin != f.pin {
        return nil, flows.ErrUnknownRoom
    }
    return f.feedbacks, nil
}

func (f *fakeRoom) Roster(ctx context.Context, pin string) ([]models.Student, error) {
    if pin != f.pin {
        return nil, flows.ErrUnknownRoom
    }
    return f.students, nil
}

func newTestRouter(room *fakeRoom) *gin.Engine {
    gin.SetMode(gin.TestMode)
    dc := &DashboardController{Feedbacks: room, Roster: room, FrontendBaseURL: "http://localhost:3000", PageSize: 5}
    r := gin.New()
    r.GET("/healthz", dc.Health)
    r.GET("/rooms/:pin/feedbacks", dc.ListFeedbacks)
    r.GET("/rooms/:pin/feedbacks/export", dc.ExportFeedbacks)
    r.GET("/rooms/:pin/students", dc.ListStudents)
    r.GET("/rooms/:pin/join-link", dc.JoinLink)
    return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
    w := httptest.NewRecorder()
    r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
    return w
}

func roster(n int) []models.Student {
    out := make([]models.Student, n)
    for i := range out {
        out[i] = models.Student{StudentID: string(rune('a' + i)), Name: strings.Repeat("x", i+1)}
    }
    return out
}

func TestListStudentsPages(t *testing.T) {
    r := newTestRouter(&fakeRoom{pin: "482913", students: roster(12)})

    var body struct {
        Students []models.Student `json:"students"`
        Start    int              `json:"start"`
        Total    int              `json:"total"`
        CanPrev  bool             `json:"can_prev"`
        CanNext  bool             `json:"can_next"`
    }

    w := get(r, "/rooms/482913/students")
    require.Equal(t, http.StatusOK, w.Code)
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
    assert.Len(t, body.Students, 5)
    assert.False(t, body.CanPrev)
    assert.True(t, body.CanNext)

    w = get(r, "/rooms/482913/students?start=10")
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
    assert.Equal(t, 7, body.Start)
    assert.Len(t, body.Students, 5)
    assert.Equal(t, "h", body.Students[0].StudentID)
    assert.True(t, body.CanPrev)
    assert.False(t, body.CanNext)
    assert.Equal(t, 12, body.Total)

    w = get(r, "/rooms/482913/students?start=0&size=4")
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
    assert.Len(t, body.Students, 4)
}

func TestListStudentsEmptyRoster(t *testing.T) {
    r := newTestRouter(&fakeRoom{pin: "482913"})
    w := get(r, "/rooms/482913/students")
    require.Equal(t, http.StatusOK, w.Code)
    assert.Contains(t, w.Body.String(), `"students":[]`)
    assert.Contains(t, w.Body.String(), `"can_next":false`)
}

func TestListFeedbacks(t *testing.T) {
    room := &fakeRoom{pin: "482913", feedbacks: []models.Feedback{{StudentID: "a", Message: "ok", Rating: 8, Timestamp: 1}}}
    r := newTestRouter(room)

    w := get(r, "/rooms/482913/feedbacks")
    require.Equal(t, http.StatusOK, w.Code)
    var body struct {
        Feedbacks []models.Feedback `json:"feedbacks"`
        Total     int               `json:"total"`
    }
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
    assert.Equal(t, 1, body.Total)
    assert.Equal(t, "ok", body.Feedbacks[0].Message)

    w = get(r, "/rooms/111222/feedbacks")
    assert.Equal(t, http.StatusNotFound, w.Code)

    room.err = errors.New("disk on fire")
    w = get(r, "/rooms/482913/feedbacks")
    assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportFeedbacks(t *testing.T) {
    r := newTestRouter(&fakeRoom{pin: "482913", feedbacks: []models.Feedback{{StudentID: "a", Message: "ok", Rating: 8, Timestamp: 1718000000001}}})

    w := get(r, "/rooms/482913/feedbacks/export")
    require.Equal(t, http.StatusOK, w.Code)
    assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
    assert.Contains(t, w.Header().Get("Content-Disposition"), "feedhub-482913.csv")
    assert.True(t, strings.HasPrefix(w.Body.String(), "student_id,rating,message"))

    w = get(r, "/rooms/482913/feedbacks/export?format=json")
    require.Equal(t, http.StatusOK, w.Code)
    assert.Contains(t, w.Body.String(), `"total": 1`)

    w = get(r, "/rooms/482913/feedbacks/export?format=pdf")
    assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinLinkAndHealth(t *testing.T) {
    r := newTestRouter(&fakeRoom{pin: "482913"})

    w := get(r, "/rooms/482913/join-link")
    require.Equal(t, http.StatusOK, w.Code)
    var body map[string]string
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
    assert.Equal(t, "http://localhost:3000/?pin=482913", body["link"])
    assert.True(t, strings.HasPrefix(body["qr"], "https://api.qrserver.com/v1/create-qr-code/?"))

    w = get(r, "/healthz")
    assert.Equal(t, http.StatusOK, w.Code)
    assert.JSONEq(t, `{"status":"ok","viewers":0}`, w.Body.String())
}
