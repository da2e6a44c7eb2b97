package models

import (
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
)

// FeedbackRecord is a dashboard feedback entry kept locally for export.
type FeedbackRecord struct {
    ID        string `gorm:"type:varchar(36);primaryKey"`
    PIN       string `gorm:"size:6;uniqueIndex:idx_feedback_key;index"`
    StudentID string `gorm:"size:64;uniqueIndex:idx_feedback_key"`
    Timestamp int64  `gorm:"uniqueIndex:idx_feedback_key"`
    Message   string
    Rating    int
    CreatedAt time.Time
}

func (r *FeedbackRecord) BeforeCreate(tx *gorm.DB) (err error) {
    if r.ID == "" {
        r.ID = uuid.NewString()
    }
    return nil
}

func NewFeedbackRecord(pin string, f Feedback) FeedbackRecord {
    return FeedbackRecord{
        PIN:       pin,
        StudentID: f.StudentID,
        Timestamp: f.Timestamp,
        Message:   f.Message,
        Rating:    f.Rating,
    }
}

func (r FeedbackRecord) Feedback() Feedback {
    return Feedback{
        StudentID: r.StudentID,
        Message:   r.Message,
        Rating:    r.Rating,
        Timestamp: r.Timestamp,
        PIN:       r.PIN,
    }
}
