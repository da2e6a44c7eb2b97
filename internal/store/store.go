// Package store keeps the rooms this client created or joined, and the
// feedback the teacher dashboard received, in the local database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zaqqye/feedhub_v1/internal/models"
)

var (
	ErrNotFound       = errors.New("store: record not found")
	ErrDuplicateEntry = errors.New("store: duplicate entry")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	if db == nil {
		panic("store: database connection cannot be nil")
	}
	return &Store{db: db}
}

// SaveSession inserts the session, or refreshes name, colour and question when
// the same (pin, role, student_id) was stored before.
func (s *Store) SaveSession(ctx context.Context, sess *models.RoomSession) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pin"}, {Name: "role"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "avatar_color", "updated_at"}),
	}).Create(sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("store: save session %s/%s: %w", sess.PIN, sess.Role, err)
	}
	return nil
}

func (s *Store) TeacherSession(ctx context.Context, pin string) (*models.RoomSession, error) {
	return s.findSession(ctx, pin, models.RoleTeacher)
}

// StudentSession returns the most recent student identity used for pin.
func (s *Store) StudentSession(ctx context.Context, pin string) (*models.RoomSession, error) {
	return s.findSession(ctx, pin, models.RoleStudent)
}

func (s *Store) findSession(ctx context.Context, pin string, role models.Role) (*models.RoomSession, error) {
	var sess models.RoomSession
	err := s.db.WithContext(ctx).
		Where("pin = ? AND role = ?", pin, role).
		Order("updated_at DESC").
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find %s session %s: %w", role, pin, err)
	}
	return &sess, nil
}

// ListSessions returns every stored session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]models.RoomSession, error) {
	var out []models.RoomSession
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	return out, nil
}

func (s *Store) MarkStarted(ctx context.Context, pin string, at time.Time) error {
	return s.updateTeacher(ctx, pin, map[string]any{"started_at": at})
}

func (s *Store) SetQuestion(ctx context.Context, pin, question string) error {
	return s.updateTeacher(ctx, pin, map[string]any{"question": question})
}

func (s *Store) updateTeacher(ctx context.Context, pin string, values map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.RoomSession{}).
		Where("pin = ? AND role = ?", pin, models.RoleTeacher).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("store: update session %s: %w", pin, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveFeedbacks stores entries not seen before and reports how many were new.
// Entries are keyed by (pin, studentId, timestamp) like the live dashboard.
func (s *Store) SaveFeedbacks(ctx context.Context, pin string, list []models.Feedback) (int64, error) {
	if len(list) == 0 {
		return 0, nil
	}
	records := make([]models.FeedbackRecord, 0, len(list))
	for _, f := range list {
		records = append(records, models.NewFeedbackRecord(pin, f))
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pin"}, {Name: "student_id"}, {Name: "timestamp"}},
		DoNothing: true,
	}).Create(&records)
	if res.Error != nil {
		return 0, fmt.Errorf("store: save feedbacks %s: %w", pin, res.Error)
	}
	return res.RowsAffected, nil
}

// ListFeedbacks returns the room's feedback in arrival order.
func (s *Store) ListFeedbacks(ctx context.Context, pin string) ([]models.Feedback, error) {
	var records []models.FeedbackRecord
	err := s.db.WithContext(ctx).
		Where("pin = ?", pin).
		Order("timestamp ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("store: list feedbacks %s: %w", pin, err)
	}
	out := make([]models.Feedback, 0, len(records))
	for _, r := range records {
		out = append(out, r.Feedback())
	}
	return out, nil
}
