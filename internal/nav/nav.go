// Package nav models the pages of the FeedHub front-end and the state that
// travels between them as URL query parameters.
package nav

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Page string

const (
	PageHome      Page = "home"
	PageLobby     Page = "lobby"
	PageJoin      Page = "join"
	PageWaiting   Page = "waiting"
	PageFeedback  Page = "feedback"
	PageDashboard Page = "dashboard"
	PageCompleted Page = "completed"
)

var (
	ErrUnknownPage      = errors.New("nav: unknown page")
	ErrMissingPIN       = errors.New("nav: pin is required")
	ErrMissingStudentID = errors.New("nav: student_id is required")
)

// Paths used by the web front-end, so links built here open the same page
// in a browser.
var paths = map[Page]string{
	PageHome:      "/",
	PageLobby:     "/page2",
	PageJoin:      "/page3",
	PageWaiting:   "/page4",
	PageFeedback:  "/page5",
	PageDashboard: "/page6",
	PageCompleted: "/page7",
}

const qrServiceURL = "https://api.qrserver.com/v1/create-qr-code/"

// Route is a page plus the state it was opened with. Question carries the
// teacher's latest question from the waiting page to the feedback form.
type Route struct {
	Page      Page
	PIN       string
	StudentID string
	Name      string
	Color     string
	Question  string
}

func Home() Route { return Route{Page: PageHome} }

func (p Page) Path() string {
	if path, ok := paths[p]; ok {
		return path
	}
	return "/"
}

func (r Route) Query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("pin", r.PIN)
	set("student_id", r.StudentID)
	set("name", r.Name)
	set("color", r.Color)
	set("question", r.Question)
	return q
}

// URL renders the route against the front-end base URL.
func (r Route) URL(base string) string {
	out := strings.TrimRight(base, "/") + r.Page.Path()
	if q := r.Query().Encode(); q != "" {
		out += "?" + q
	}
	return out
}

func (r Route) String() string {
	return r.URL("")
}

// Validate reports the first parameter the page cannot work without.
func (r Route) Validate() error {
	switch r.Page {
	case PageHome:
		return nil
	case PageLobby, PageJoin, PageDashboard, PageCompleted:
		if r.PIN == "" {
			return ErrMissingPIN
		}
	case PageWaiting, PageFeedback:
		if r.PIN == "" {
			return ErrMissingPIN
		}
		if r.StudentID == "" {
			return ErrMissingStudentID
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPage, r.Page)
	}
	return nil
}

// Parse reads a front-end URL (absolute or just path and query) back into a
// Route. A bare "/?pin=..." is the join link and opens the join page.
func Parse(raw string) (Route, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Route{}, fmt.Errorf("nav: parse %q: %w", raw, err)
	}
	path := "/" + strings.Trim(u.Path, "/")
	var page Page
	for p, candidate := range paths {
		if candidate == path {
			page = p
			break
		}
	}
	if page == "" {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownPage, u.Path)
	}
	q := u.Query()
	r := Route{
		Page:      page,
		PIN:       q.Get("pin"),
		StudentID: q.Get("student_id"),
		Name:      q.Get("name"),
		Color:     q.Get("color"),
		Question:  q.Get("question"),
	}
	if r.Page == PageHome && r.PIN != "" {
		r.Page = PageJoin
	}
	return r, nil
}

// JoinLink is the link students follow (or scan) to reach a room.
func JoinLink(base, pin string) string {
	return strings.TrimRight(base, "/") + "/?" + url.Values{"pin": {pin}}.Encode()
}

// QRCodeURL returns an image URL encoding link as a 150x150 QR code.
func QRCodeURL(link string) string {
	q := url.Values{}
	q.Set("size", "150x150")
	q.Set("data", link)
	return qrServiceURL + "?" + q.Encode()
}
