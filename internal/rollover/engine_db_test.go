package rollover

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tarbeev/planner/internal/model"
	"github.com/tarbeev/planner/internal/repository"
)

// End-to-end run of the engine over the real SQLite-backed store.

func newEngineDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestEngineAgainstSQLiteStore(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	tasks := repository.NewTaskRepository(db)
	histories := repository.NewHistoryRepository(db)

	user := &model.User{Email: "planner@example.com", Timezone: "UTC"}
	require.NoError(t, users.Create(ctx, user))

	task := &model.Task{UserID: user.ID, Title: "write report", ScheduledFor: date(2024, time.January, 1)}
	require.NoError(t, tasks.Create(ctx, task))

	exec := executorAt(tasks, time.Date(2024, time.January, 2, 0, 5, 0, 0, time.UTC))
	coordinator := NewCoordinator(users, exec, 2)

	report, err := coordinator.RunAll(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.TasksRolled)
	assert.Equal(t, date(2024, time.January, 1), report.Results[0].FromDate)
	assert.Equal(t, date(2024, time.January, 2), report.Results[0].ToDate)

	reloaded, err := tasks.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 2), model.DateOnly(reloaded.ScheduledFor))
	assert.Equal(t, 1, reloaded.RolloverCount)

	audit, err := histories.FindRollover(ctx, task.ID, date(2024, time.January, 2))
	require.NoError(t, err)
	require.NotNil(t, audit)
	assert.Equal(t, 1, audit.RolloverCountAfter)

	// The whole fleet run is idempotent, not just one executor call.
	report, err = coordinator.RunAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TasksRolled)

	reloaded, err = tasks.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.RolloverCount)
}

func TestEngineBackfillAgainstSQLiteStore(t *testing.T) {
	db := newEngineDB(t)
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	tasks := repository.NewTaskRepository(db)

	user := &model.User{Email: "away@example.com", Timezone: "UTC"}
	require.NoError(t, users.Create(ctx, user))

	task := &model.Task{UserID: user.ID, Title: "water plants", ScheduledFor: date(2024, time.January, 1)}
	require.NoError(t, tasks.Create(ctx, task))

	exec := executorAt(tasks, time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC))
	results, err := exec.Backfill(ctx, user.ID, user.Timezone, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	reloaded, err := tasks.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 4), model.DateOnly(reloaded.ScheduledFor))
	assert.Equal(t, 3, reloaded.RolloverCount)
}
