package routes

import (
    "github.com/gin-gonic/gin"

    "github.com/zaqqye/feedhub_v1/internal/config"
    "github.com/zaqqye/feedhub_v1/internal/controllers"
    "github.com/zaqqye/feedhub_v1/internal/middleware"
    "github.com/zaqqye/feedhub_v1/internal/ws"
)

// Deps is what the local dashboard server reads from.
type Deps struct {
    Config    *config.Config
    Feedbacks controllers.FeedbackSource
    Roster    controllers.RosterSource
    Hub       *ws.DashboardHub
}

func Register(r *gin.Engine, deps Deps) {
    dashCtrl := &controllers.DashboardController{
        Feedbacks:       deps.Feedbacks,
        Roster:          deps.Roster,
        Hub:             deps.Hub,
        FrontendBaseURL: deps.Config.FrontendBaseURL,
        PageSize:        deps.Config.PageSizeOrDefault(),
    }

    // Public
    r.GET("/healthz", dashCtrl.Health)

    // Protected: every route is scoped to the room in the viewer token
    viewerMW := middleware.ViewerAuth(middleware.AuthConfig{Secret: deps.Config.DashboardSecret})
    api := r.Group("/api/rooms/:pin", viewerMW)
    {
        api.GET("/feedbacks", dashCtrl.ListFeedbacks)
        api.GET("/feedbacks/export", dashCtrl.ExportFeedbacks)
        api.GET("/students", dashCtrl.ListStudents)
        api.GET("/join-link", dashCtrl.JoinLink)
    }

    r.GET("/ws/rooms/:pin", viewerMW, ws.DashboardHandler(deps.Hub))
}
