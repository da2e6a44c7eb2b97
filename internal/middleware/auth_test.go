package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "classroom-secret"

func newRouter() *gin.Engine {
    gin.SetMode(gin.TestMode)
    r := gin.New()
    r.GET("/api/rooms/:pin/ping", ViewerAuth(AuthConfig{Secret: testSecret}), func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"pin": c.GetString("viewer_pin")})
    })
    return r
}

func serve(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, path, nil)
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    w := httptest.NewRecorder()
    r.ServeHTTP(w, req)
    return w
}

func TestViewerAuth(t *testing.T) {
    r := newRouter()
    token, err := IssueViewerToken(testSecret, "482913", time.Hour)
    require.NoError(t, err)
    other, err := IssueViewerToken("another-secret", "482913", time.Hour)
    require.NoError(t, err)
    expired, err := IssueViewerToken(testSecret, "482913", -time.Minute)
    require.NoError(t, err)

    cases := []struct {
        name   string
        path   string
        auth   string
        status int
    }{
        {"bearer header", "/api/rooms/482913/ping", "Bearer " + token, http.StatusOK},
        {"query token", "/api/rooms/482913/ping?token=" + token, "", http.StatusOK},
        {"missing token", "/api/rooms/482913/ping", "", http.StatusUnauthorized},
        {"basic auth", "/api/rooms/482913/ping", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
        {"wrong secret", "/api/rooms/482913/ping", "Bearer " + other, http.StatusUnauthorized},
        {"expired", "/api/rooms/482913/ping", "Bearer " + expired, http.StatusUnauthorized},
        {"other room", "/api/rooms/111222/ping", "Bearer " + token, http.StatusForbidden},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            w := serve(r, tc.path, tc.auth)
            assert.Equal(t, tc.status, w.Code)
        })
    }
}

func TestIssueViewerTokenRequiresSecret(t *testing.T) {
    _, err := IssueViewerToken("", "482913", time.Hour)
    assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
    gin.SetMode(gin.TestMode)
    log, hook := test.NewNullLogger()
    r := gin.New()
    r.Use(RequestLogger(log))
    r.GET("/api/rooms/:pin/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

    w := serve(r, "/api/rooms/482913/ping", "")
    assert.Equal(t, http.StatusTeapot, w.Code)
    require.Len(t, hook.Entries, 1)
    assert.Equal(t, "482913", hook.LastEntry().Data["pin"])
    assert.Equal(t, http.StatusTeapot, hook.LastEntry().Data["status"])
}
