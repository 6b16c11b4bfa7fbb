package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgrepo "github.com/yoockh/yootravel/internal/repositories/postgres"
	"github.com/yoockh/yootravel/internal/utils"
)

func TestDashboardReadsBothStores(t *testing.T) {
	h := newChatHarness(t, nil)
	cc := h.identified(t)
	ctx := context.Background()

	_, err := h.svc.Turn(ctx, cc, "Somewhere warm in January")
	require.NoError(t, err)

	dash := NewDashboardService(h.tel, h.convos, pgrepo.NewTableRepo(h.db))

	ov, err := dash.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ov.System.TotalUsers)
	assert.EqualValues(t, 1, ov.System.MessagesToday)
	require.Len(t, ov.DailyActivity, 1)

	users, err := dash.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, cc.UserID, users[0].UserID)

	detail, err := dash.UserDetail(ctx, cc.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, detail.Stats.TotalMessages)
	assert.EqualValues(t, 1, detail.Analytics.TotalConversations)
	assert.NotEmpty(t, detail.RecentActivity)

	sys, err := dash.System(ctx)
	require.NoError(t, err)
	require.Len(t, sys.APICalls, 1)
	assert.Equal(t, "groq", sys.APICalls[0].APIService)
	assert.Empty(t, sys.Errors)

	logs, err := dash.Logs(ctx, "INFO", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestDashboardTableBrowser(t *testing.T) {
	h := newChatHarness(t, nil)
	h.identified(t)
	ctx := context.Background()
	dash := NewDashboardService(h.tel, h.convos, pgrepo.NewTableRepo(h.db))

	tables, err := dash.Tables(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(tables))
	for _, tb := range tables {
		names = append(names, tb.Name)
	}
	assert.Contains(t, names, "users")
	assert.Contains(t, names, "conversation_sessions")

	users, err := dash.Table(ctx, "users")
	require.NoError(t, err)
	assert.NotEmpty(t, users.Columns)
	assert.Len(t, users.Sample, 1)

	_, err = dash.Table(ctx, `users"; DROP TABLE users; --`)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestDashboardUserDetailFailsWhenTelemetryDown(t *testing.T) {
	h := newChatHarness(t, downTelemetryRepo{})
	dash := NewDashboardService(h.tel, h.convos, pgrepo.NewTableRepo(h.db))

	_, err := dash.UserDetail(context.Background(), "u1")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	_, err = dash.UserDetail(context.Background(), "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
