package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/feedhub_v1/internal/config"
	"github.com/zaqqye/feedhub_v1/internal/database"
	"github.com/zaqqye/feedhub_v1/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "feedhub.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return New(db)
}

func TestSaveSessionUpsertsByIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.RoomSession{PIN: "482913", Role: models.RoleStudent, StudentID: "k3j9x0abcde", Name: "Ana", AvatarColor: "#FFB3BA"}
	require.NoError(t, s.SaveSession(ctx, first))
	again := &models.RoomSession{PIN: "482913", Role: models.RoleStudent, StudentID: "k3j9x0abcde", Name: "Ana Clara", AvatarColor: "#BAE1FF"}
	require.NoError(t, s.SaveSession(ctx, again))

	all, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ana Clara", all[0].Name)

	got, err := s.StudentSession(ctx, "482913")
	require.NoError(t, err)
	assert.Equal(t, "k3j9x0abcde", got.StudentID)
}

func TestTeacherSessionUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.TeacherSession(ctx, "482913")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.SetQuestion(ctx, "482913", "?"), ErrNotFound)

	require.NoError(t, s.SaveSession(ctx, &models.RoomSession{PIN: "482913", Role: models.RoleTeacher}))
	require.NoError(t, s.SetQuestion(ctx, "482913", "How was today's class?"))
	started := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkStarted(ctx, "482913", started))

	got, err := s.TeacherSession(ctx, "482913")
	require.NoError(t, err)
	assert.Equal(t, "How was today's class?", got.Question)
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))
}

func TestSaveFeedbacksSkipsKnownEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []models.Feedback{
		{StudentID: "a", Message: "ok", Rating: 7, Timestamp: 2},
		{StudentID: "b", Message: "great", Rating: 10, Timestamp: 1},
	}
	n, err := s.SaveFeedbacks(ctx, "482913", batch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.SaveFeedbacks(ctx, "482913", append(batch, models.Feedback{StudentID: "c", Message: "meh", Rating: 4, Timestamp: 3}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.SaveFeedbacks(ctx, "482913", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := s.ListFeedbacks(ctx, "482913")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].StudentID)
	assert.Equal(t, "482913", list[0].PIN)

	other, err := s.ListFeedbacks(ctx, "111222")
	require.NoError(t, err)
	assert.Empty(t, other)
}
