// Package notify shows the short-lived messages ("toasts") pages raise on
// success or failure.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1B5E20")).Background(lipgloss.Color("#BAFFC9")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#D32F2F")).Padding(0, 1)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#0D47A1")).Background(lipgloss.Color("#BAE1FF")).Padding(0, 1)
)

// Toaster prints one styled line per notification.
type Toaster struct {
	mu  sync.Mutex
	out io.Writer
}

func NewToaster(out io.Writer) *Toaster {
	return &Toaster{out: out}
}

func (t *Toaster) Success(msg string) { t.write(successStyle, "✓ "+msg) }
func (t *Toaster) Error(msg string)   { t.write(errorStyle, "✗ "+msg) }
func (t *Toaster) Info(msg string)    { t.write(infoStyle, msg) }

func (t *Toaster) write(style lipgloss.Style, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, style.Render(msg))
}

type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps notifications in memory instead of showing them.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
	r.mu.Unlock()
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent entry, or the zero Entry.
func (r *Recorder) Last() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}
	}
	return r.entries[len(r.entries)-1]
}
