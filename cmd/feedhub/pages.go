package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/zaqqye/feedhub_v1/internal/flows"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/ui"
	"github.com/zaqqye/feedhub_v1/internal/utils"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// pageInput holds the answers a page would otherwise ask for.
type pageInput struct {
	name    string
	color   string
	rating  int
	comment string
	plain   bool
	serve   bool
}

type inputLine struct {
	text string
	err  error
}

// lineReader hands out lines from src. A single goroutine owns src for the
// whole process, so a page that stops waiting leaves the next line for
// whoever reads after it.
type lineReader struct {
	src   io.Reader
	once  sync.Once
	lines chan inputLine
}

func newLineReader(src io.Reader) *lineReader {
	return &lineReader{src: src}
}

var stdin = newLineReader(os.Stdin)

func (lr *lineReader) start() {
	lr.lines = make(chan inputLine)
	go func() {
		defer close(lr.lines)
		r := bufio.NewReader(lr.src)
		for {
			text, err := r.ReadString('\n')
			lr.lines <- inputLine{text: text, err: err}
			if err != nil {
				return
			}
		}
	}()
}

// ReadLine returns the next trimmed line, or ctx's error if ctx ends first.
func (lr *lineReader) ReadLine(ctx context.Context) (string, error) {
	lr.once.Do(lr.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		if line.err != nil && !(errors.Is(line.err, io.EOF) && line.text != "") {
			return "", line.err
		}
		return strings.TrimSpace(line.text), nil
	}
}

func prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(os.Stdout, label)
	return stdin.ReadLine(ctx)
}

// runRoute opens pages one after another, the way the web front-end
// navigates, until it is back home.
func runRoute(ctx context.Context, e *env, r nav.Route, in pageInput) error {
	for {
		log.WithFields(logrus.Fields{"page": r.Page, "pin": r.PIN}).Debug("opening page")
		var err error
		switch r.Page {
		case nav.PageHome:
			return nil
		case nav.PageJoin:
			r, err = joinPage(ctx, e, r, in)
		case nav.PageWaiting:
			fmt.Printf("Hi %s! Waiting for the teacher to start the activity...\n", r.Name)
			r, err = e.app.Wait(ctx, r)
		case nav.PageFeedback:
			r, err = feedbackPage(ctx, e, r, in)
		case nav.PageCompleted:
			fmt.Println("Thank you! Your feedback was sent.")
			r, err = e.app.Completed(ctx, r)
		case nav.PageLobby:
			r, err = lobbyPage(ctx, e, r, in)
		case nav.PageDashboard:
			return dashboardPage(ctx, e, r, in)
		default:
			return fmt.Errorf("%w: %q", nav.ErrUnknownPage, r.Page)
		}
		if err != nil {
			return err
		}
	}
}

func joinPage(ctx context.Context, e *env, r nav.Route, in pageInput) (nav.Route, error) {
	name := in.name
	if name == "" {
		name = r.Name
	}
	if name == "" {
		var err error
		if name, err = prompt(ctx, "Your name: "); err != nil {
			return r, err
		}
	}
	color := in.color
	if color == "" {
		color = r.Color
	}
	return e.app.Join(ctx, r, name, color)
}

func feedbackPage(ctx context.Context, e *env, r nav.Route, in pageInput) (nav.Route, error) {
	rating := in.rating
	if rating == 0 {
		rating = flows.DefaultRating
	}
	if r.Question != "" {
		fmt.Printf("Question: %s\n", r.Question)
	}
	comment := in.comment
	if strings.TrimSpace(comment) == "" {
		var err error
		fmt.Printf("Rating: %d/10\n", rating)
		if comment, err = prompt(ctx, "Comment: "); err != nil {
			return r, err
		}
	}
	return e.app.SubmitFeedback(ctx, r, rating, comment)
}

func lobbyPage(ctx context.Context, e *env, r nav.Route, in pageInput) (nav.Route, error) {
	lobby, err := e.app.OpenLobby(ctx, r)
	if err != nil {
		return nav.Home(), err
	}
	defer lobby.Close()

	if !in.plain {
		restore := quietForUI(e)
		model := ui.NewLobbyModel(ctx, r.PIN, lobby, lobby.Session.Events(), cfg.PageSizeOrDefault())
		final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		restore()
		if err != nil {
			return nav.Home(), err
		}
		return final.(ui.LobbyModel).Result()
	}

	return runPlainLobby(ctx, e, lobby, os.Stdout, func(ctx context.Context) error {
		_, err := stdin.ReadLine(ctx)
		return err
	})
}

// runPlainLobby prints the lobby and its live updates to out and starts the
// activity once enter returns.
func runPlainLobby(ctx context.Context, e *env, lobby *flows.Lobby, out io.Writer, enter func(context.Context) error) (nav.Route, error) {
	fmt.Fprintf(out, "Room PIN: %s\nJoin link: %s\nQR code: %s\n", utils.FormatPIN(lobby.PIN), lobby.JoinLink(), lobby.QRCode())
	fmt.Fprintln(out, "Press Enter to start the activity.")

	e.app.OnEvent = eventPrinter(out)
	defer func() { e.app.OnEvent = nil }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	type result struct {
		next nav.Route
		err  error
	}
	done := make(chan result, 1)
	go func() {
		next, err := lobby.Run(runCtx)
		done <- result{next, err}
	}()
	pressed := make(chan error, 1)
	go func() {
		pressed <- enter(runCtx)
	}()

	select {
	case res := <-done:
		cancel()
		return res.next, res.err
	case err := <-pressed:
		cancel()
		<-done
		if err != nil && !errors.Is(err, io.EOF) {
			return nav.Home(), err
		}
		return lobby.Start(ctx)
	}
}

// eventPrinter renders live room events as plain lines.
func eventPrinter(out io.Writer) func(ws.Event) {
	return func(ev ws.Event) { printEvent(out, ev) }
}

func printEvent(out io.Writer, ev ws.Event) {
	switch e := ev.(type) {
	case ws.RosterChanged:
		names := make([]string, 0, len(e.Students))
		for _, s := range e.Students {
			names = append(names, s.Name)
		}
		fmt.Fprintf(out, "Students (%d): %s\n", len(names), strings.Join(names, ", "))
	case ws.QuestionChanged:
		fmt.Fprintf(out, "Question: %s\n", e.Question)
	case ws.FeedbackAdded:
		fmt.Fprintf(out, "[%d/10] %s: %s\n", e.Feedback.Rating, e.Feedback.StudentID, e.Feedback.Message)
	}
}
