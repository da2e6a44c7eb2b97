// Package room holds the client-side view of one room: roster, question,
// activity flag and the dashboard feedback list.
package room

import (
	"sync"

	"github.com/zaqqye/feedhub_v1/internal/models"
)

// State is safe for concurrent use; the socket reader writes while the UI reads.
type State struct {
	mu        sync.RWMutex
	pin       string
	students  []models.Student
	question  string
	started   bool
	feedbacks []models.Feedback
	seen      map[models.FeedbackKey]struct{}
}

func NewState(pin string) *State {
	return &State{
		pin:      pin,
		students: []models.Student{},
		seen:     map[models.FeedbackKey]struct{}{},
	}
}

func (s *State) PIN() string { return s.pin }

// ReplaceRoster swaps the roster for students. Entries missing from the new
// list are gone afterwards.
func (s *State) ReplaceRoster(students []models.Student) {
	next := make([]models.Student, len(students))
	copy(next, students)
	s.mu.Lock()
	s.students = next
	s.mu.Unlock()
}

func (s *State) Roster() []models.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Student, len(s.students))
	copy(out, s.students)
	return out
}

func (s *State) RosterLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

func (s *State) SetQuestion(q string) {
	s.mu.Lock()
	s.question = q
	s.mu.Unlock()
}

func (s *State) Question() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.question
}

func (s *State) MarkStarted() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

func (s *State) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// AddFeedback appends f unless an entry with the same (studentId, timestamp)
// is already present. It reports whether f was appended.
func (s *State) AddFeedback(f models.Feedback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(f)
}

// MergeFeedbacks appends every entry of list not already present, keeping
// arrival order. Used for the REST snapshot, which can overlap with pushes
// that arrived first.
func (s *State) MergeFeedbacks(list []models.Feedback) []models.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	var added []models.Feedback
	for _, f := range list {
		if s.addLocked(f) {
			added = append(added, f)
		}
	}
	return added
}

func (s *State) addLocked(f models.Feedback) bool {
	key := f.Key()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.feedbacks = append(s.feedbacks, f)
	return true
}

func (s *State) Feedbacks() []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Feedback, len(s.feedbacks))
	copy(out, s.feedbacks)
	return out
}

// Summary aggregates the ratings currently on the dashboard.
type Summary struct {
	Count        int
	Average      float64
	Distribution [10]int // index 0 holds rating 1
}

func (s *State) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Summarize(s.feedbacks)
}

// Summarize ignores ratings outside 1..10 for the average and distribution.
func Summarize(list []models.Feedback) Summary {
	var sum Summary
	total := 0
	rated := 0
	for _, f := range list {
		sum.Count++
		if f.Rating < 1 || f.Rating > 10 {
			continue
		}
		sum.Distribution[f.Rating-1]++
		total += f.Rating
		rated++
	}
	if rated > 0 {
		sum.Average = float64(total) / float64(rated)
	}
	return sum
}
