package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/zaqqye/feedhub_v1/internal/flows"
	"github.com/zaqqye/feedhub_v1/internal/middleware"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/notify"
	"github.com/zaqqye/feedhub_v1/internal/routes"
	"github.com/zaqqye/feedhub_v1/internal/ui"
	"github.com/zaqqye/feedhub_v1/internal/utils"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

const viewerTokenTTL = 12 * time.Hour

// dashboardPage shows the live feedback and, with --serve, runs the local
// dashboard server next to it. Leaving the dashboard stops the server.
func dashboardPage(ctx context.Context, e *env, r nav.Route, in pageInput) error {
	var hub *ws.DashboardHub
	if in.serve {
		hub = ws.NewDashboardHub(log)
	}
	dash, err := e.app.OpenDashboard(ctx, r, hub)
	if err != nil {
		return err
	}
	defer dash.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if hub != nil {
		srv, err := newDashboardServer(dash, hub)
		if err != nil {
			return err
		}
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return serve(gctx, srv)
		})
	}
	g.Go(func() error {
		defer cancel()
		if in.plain {
			e.app.OnEvent = eventPrinter(os.Stdout)
			_, err := dash.Run(gctx)
			return ignoreCanceled(err)
		}
		return runDashboardUI(gctx, e, dash)
	})
	return g.Wait()
}

func runDashboardUI(ctx context.Context, e *env, dash *flows.Dashboard) error {
	restore := quietForUI(e)
	model := ui.NewDashboardModel(ctx, dash.PIN, dash, dash.Session.Events(), cfg.PageSizeOrDefault())
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	restore()
	if err != nil {
		return ignoreCanceled(err)
	}
	_, err = final.(ui.DashboardModel).Result()
	if errors.Is(err, flows.ErrConnection) {
		return err
	}
	return nil
}

// quietForUI keeps log lines and toasts from drawing over the terminal UI.
// Toasts raised meanwhile are printed once the UI exits.
func quietForUI(e *env) func() {
	out := log.Out
	notifier := e.app.Notify
	rec := &notify.Recorder{}
	log.SetOutput(io.Discard)
	e.app.Notify = rec
	return func() {
		log.SetOutput(out)
		e.app.Notify = notifier
		for _, entry := range rec.Entries() {
			switch entry.Level {
			case notify.LevelError:
				notifier.Error(entry.Message)
			case notify.LevelSuccess:
				notifier.Success(entry.Message)
			default:
				notifier.Info(entry.Message)
			}
		}
	}
}

// newDashboardServer builds the local dashboard server and prints the
// tokenized URLs a browser needs to open it.
func newDashboardServer(dash *flows.Dashboard, hub *ws.DashboardHub) (*http.Server, error) {
	serverCfg := *cfg
	if serverCfg.DashboardSecret == "" {
		secret, err := utils.GenerateCode(32)
		if err != nil {
			return nil, err
		}
		serverCfg.DashboardSecret = secret
		log.Warn("DASHBOARD_SECRET not set; using a one-off secret for this run")
	}
	token, err := middleware.IssueViewerToken(serverCfg.DashboardSecret, dash.PIN, viewerTokenTTL)
	if err != nil {
		return nil, err
	}

	if serverCfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.Register(r, routes.Deps{Config: &serverCfg, Feedbacks: dash, Roster: dash, Hub: hub})

	port := serverCfg.DashboardPort
	fmt.Fprintf(os.Stderr, "Dashboard API: http://localhost:%s/api/rooms/%s/feedbacks?token=%s\n", port, dash.PIN, token)
	fmt.Fprintf(os.Stderr, "Live updates:  ws://localhost:%s/ws/rooms/%s?token=%s\n", port, dash.PIN, token)
	return &http.Server{Addr: ":" + port, Handler: r}, nil
}

// serve runs srv until ctx is cancelled.
func serve(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard server: %w", err)
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
