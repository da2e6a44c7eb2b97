package models

import (
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"
)

type Role string

const (
    RoleTeacher Role = "teacher"
    RoleStudent Role = "student"
)

// RoomSession is a room this client created or joined. For students it keeps
// the student_id generated at join time so later commands reuse it.
type RoomSession struct {
    ID          string `gorm:"type:varchar(36);primaryKey"`
    PIN         string `gorm:"size:6;uniqueIndex:idx_session_identity"`
    Role        Role   `gorm:"size:16;uniqueIndex:idx_session_identity"`
    StudentID   string `gorm:"size:64;uniqueIndex:idx_session_identity"`
    Name        string
    AvatarColor string `gorm:"size:16"`
    Question    string
    StartedAt   *time.Time
    CreatedAt   time.Time
    UpdatedAt   time.Time
}

func (s *RoomSession) BeforeCreate(tx *gorm.DB) (err error) {
    if s.ID == "" {
        s.ID = uuid.NewString()
    }
    return nil
}
