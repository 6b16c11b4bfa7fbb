package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yootravel/internal/models"
	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	"github.com/yoockh/yootravel/internal/utils"
)

func TestTitleFromMessage(t *testing.T) {
	now := time.Date(2026, 7, 4, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first six words", "Plan a two week trip to Japan in spring", "Plan a two week trip to"},
		{"short falls back to date", "Hi there", "Travel Chat - 07/04"},
		{"exactly ten chars kept", "Visit Rome", "Visit Rome"},
		{"collapses whitespace", "  best   beaches\tin  Bali please  ", "best beaches in Bali please"},
		{
			"long words truncated",
			"Supercalifragilistic extraordinarily comprehensive internationally renowned destinations everywhere",
			"Supercalifragilistic extraordinarily comprehens...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleFromMessage(tt.in, now)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), 50)
		})
	}
}

func newTestSessionService(t *testing.T) *sessionService {
	t.Helper()
	db := newPrimaryDB(t)
	svc := NewSessionService(pgrepo.NewSessionRepo(db)).(*sessionService)
	svc.now = func() time.Time { return time.Date(2026, 7, 4, 15, 30, 0, 0, time.UTC) }
	return svc
}

func TestSessionCreateDefaultsTitle(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "  ")
	require.NoError(t, err)
	assert.Equal(t, "Travel Chat - 07/04 15:30", s.Title)
	assert.NotEmpty(t, s.SessionID)

	_, err = svc.Create(ctx, "", "x")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestSessionOwnershipAndMessages(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "Japan")
	require.NoError(t, err)

	_, err = svc.Get(ctx, s.SessionID, "u2")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	require.NoError(t, svc.AppendMessage(ctx, s.SessionID, "u1", models.RoleUser, "hello", nil))
	require.NoError(t, svc.AppendMessage(ctx, s.SessionID, "u1", models.RoleAssistant, "hi!", map[string]any{"k": "v"}))

	got, err := svc.Get(ctx, s.SessionID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)

	msgs, err := svc.Messages(ctx, s.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "v", msgs[1].Metadata["k"])

	err = svc.AppendMessage(ctx, "missing", "u1", models.RoleUser, "x", nil)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestSessionRenameAutoTitleDelete(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "")
	require.NoError(t, err)

	title, err := svc.AutoTitle(ctx, s.SessionID, "Where should I go for autumn foliage")
	require.NoError(t, err)
	assert.Equal(t, "Where should I go for autumn", title)

	err = svc.Rename(ctx, s.SessionID, "u1", strings.Repeat("x", 501))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	require.NoError(t, svc.Rename(ctx, s.SessionID, "u1", "Trip ideas"))

	// a renamed session keeps its name
	title, err = svc.AutoTitle(ctx, s.SessionID, "Cheap flights to Lisbon next month")
	require.NoError(t, err)
	assert.Empty(t, title)
	got, err := svc.Get(ctx, s.SessionID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Trip ideas", got.Title)
	assert.True(t, got.CustomTitle)

	require.NoError(t, svc.AppendMessage(ctx, s.SessionID, "u1", models.RoleUser, "hello", nil))
	require.NoError(t, svc.Delete(ctx, s.SessionID, "u1"))

	_, err = svc.Get(ctx, s.SessionID, "u1")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	msgs, err := svc.Messages(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	err = svc.Delete(ctx, s.SessionID, "u1")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestSessionExplicitTitleIsNotReplaced(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "My Japan honeymoon")
	require.NoError(t, err)
	assert.True(t, s.CustomTitle)

	title, err := svc.AutoTitle(ctx, s.SessionID, "Plan a trip to Kyoto in April")
	require.NoError(t, err)
	assert.Empty(t, title)

	got, err := svc.Get(ctx, s.SessionID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "My Japan honeymoon", got.Title)

	_, err = svc.Create(ctx, "u1", strings.Repeat("y", MaxTitleLength+1))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestSessionListNewestFirst(t *testing.T) {
	svc := newTestSessionService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", "a")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u1", "b")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, svc.AppendMessage(ctx, a.SessionID, "u1", models.RoleUser, "bump", nil))

	rows, err := svc.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, a.SessionID, rows[0].SessionID)
	assert.Equal(t, b.SessionID, rows[1].SessionID)
}
