package controllers

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/zaqqye/feedhub_v1/internal/export"
    "github.com/zaqqye/feedhub_v1/internal/flows"
    "github.com/zaqqye/feedhub_v1/internal/models"
    "github.com/zaqqye/feedhub_v1/internal/nav"
    "github.com/zaqqye/feedhub_v1/internal/pagination"
    "github.com/zaqqye/feedhub_v1/internal/ws"
)

type FeedbackSource interface {
    ListFeedbacks(ctx context.Context, pin string) ([]models.Feedback, error)
}

type RosterSource interface {
    Roster(ctx context.Context, pin string) ([]models.Student, error)
}

type DashboardController struct {
    Feedbacks       FeedbackSource
    Roster          RosterSource
    Hub             *ws.DashboardHub
    FrontendBaseURL string
    PageSize        int
}

func (dc *DashboardController) Health(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"status": "ok", "viewers": dc.Hub.Viewers()})
}

func (dc *DashboardController) ListFeedbacks(c *gin.Context) {
    list, ok := dc.feedbacks(c)
    if !ok {
        return
    }
    c.JSON(http.StatusOK, gin.H{"feedbacks": list, "total": len(list)})
}

// ExportFeedbacks serves the feedback list as a download (?format=csv|json).
func (dc *DashboardController) ExportFeedbacks(c *gin.Context) {
    format, err := export.ParseFormat(c.Query("format"))
    if err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
        return
    }
    list, ok := dc.feedbacks(c)
    if !ok {
        return
    }
    pin := c.Param("pin")
    c.Header("Content-Type", format.ContentType())
    c.Header("Content-Disposition", `attachment; filename="`+format.Filename(pin)+`"`)
    c.Status(http.StatusOK)
    if err := export.Write(c.Writer, format, pin, list); err != nil {
        _ = c.Error(err)
    }
}

// ListStudents pages through the live roster like the lobby carousel.
func (dc *DashboardController) ListStudents(c *gin.Context) {
    if dc.Roster == nil {
        c.JSON(http.StatusServiceUnavailable, gin.H{"error": "roster not available"})
        return
    }
    students, err := dc.Roster.Roster(c.Request.Context(), c.Param("pin"))
    if err != nil {
        respondSourceError(c, err)
        return
    }

    size := dc.PageSize
    if size <= 0 {
        size = pagination.DefaultPageSize
    }
    start := 0
    if v := c.Query("size"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            size = n
        }
    }
    if v := c.Query("start"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n >= 0 {
            start = n
        }
    }

    pager := pagination.New(size)
    pager.Start = start
    pager.SetLen(len(students))
    page := pagination.Visible(pager, students)
    if page == nil {
        page = []models.Student{}
    }
    c.JSON(http.StatusOK, gin.H{
        "students": page,
        "start":    pager.Start,
        "size":     pager.Size,
        "total":    len(students),
        "can_prev": pager.CanPrev(),
        "can_next": pager.CanNext(),
    })
}

// JoinLink returns the link students open, and a QR image for it.
func (dc *DashboardController) JoinLink(c *gin.Context) {
    link := nav.JoinLink(dc.FrontendBaseURL, c.Param("pin"))
    c.JSON(http.StatusOK, gin.H{"link": link, "qr": nav.QRCodeURL(link)})
}

func (dc *DashboardController) feedbacks(c *gin.Context) ([]models.Feedback, bool) {
    if dc.Feedbacks == nil {
        c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback not available"})
        return nil, false
    }
    list, err := dc.Feedbacks.ListFeedbacks(c.Request.Context(), c.Param("pin"))
    if err != nil {
        respondSourceError(c, err)
        return nil, false
    }
    if list == nil {
        list = []models.Feedback{}
    }
    return list, true
}

func respondSourceError(c *gin.Context, err error) {
    if errors.Is(err, flows.ErrUnknownRoom) {
        c.JSON(http.StatusNotFound, gin.H{"error": "room not served by this dashboard"})
        return
    }
    _ = c.Error(err)
    c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room data"})
}
