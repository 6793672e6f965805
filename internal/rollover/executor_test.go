package rollover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarbeev/planner/internal/model"
)

// fakeStore is an in-memory TaskStore with the same idempotency
// contract as the real repository: one audit entry per (task, toDate),
// checked and written atomically under the mutex.
type fakeStore struct {
	mu     sync.Mutex
	tasks  map[string]*model.Task
	audits []model.TaskHistory

	findErrByUser map[string]error
	rollErrByTask map[string]error
}

func newFakeStore(tasks ...*model.Task) *fakeStore {
	s := &fakeStore{
		tasks:         make(map[string]*model.Task),
		findErrByUser: make(map[string]error),
		rollErrByTask: make(map[string]error),
	}
	for _, task := range tasks {
		s.tasks[task.ID] = task
	}
	return s
}

func (s *fakeStore) FindOpenScheduledOn(_ context.Context, userID string, date time.Time) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.findErrByUser[userID]; err != nil {
		return nil, err
	}
	var out []model.Task
	for _, task := range s.tasks {
		if task.UserID == userID && task.Status == model.StatusOpen && task.ScheduledFor.Equal(model.DateOnly(date)) {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (s *fakeStore) RollForward(_ context.Context, taskID string, from, to time.Time, newCount int, backfilled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rollErrByTask[taskID]; err != nil {
		return false, err
	}
	from, to = model.DateOnly(from), model.DateOnly(to)
	for _, audit := range s.audits {
		if audit.TaskID == taskID && audit.ToDate.Equal(to) {
			return false, nil
		}
	}
	task := s.tasks[taskID]
	task.ScheduledFor = to
	task.RolloverCount = newCount
	s.audits = append(s.audits, model.TaskHistory{
		TaskID:             taskID,
		Kind:               model.HistoryRollover,
		FromDate:           &from,
		ToDate:             &to,
		RolloverCountAfter: newCount,
		Backfilled:         backfilled,
	})
	return true, nil
}

func (s *fakeStore) auditsFor(taskID string) []model.TaskHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TaskHistory
	for _, audit := range s.audits {
		if audit.TaskID == taskID {
			out = append(out, audit)
		}
	}
	return out
}

func newTask(id, userID string, status string, scheduledFor time.Time, count int) *model.Task {
	return &model.Task{ID: id, UserID: userID, Status: status, ScheduledFor: scheduledFor, RolloverCount: count}
}

func executorAt(store TaskStore, instant time.Time) *Executor {
	e := NewExecutor(store)
	e.now = func() time.Time { return instant }
	return e
}

func TestExecuteRollsAndStaysIdempotent(t *testing.T) {
	store := newFakeStore(newTask("t1", "u1", model.StatusOpen, date(2024, time.January, 1), 0))
	exec := executorAt(store, time.Date(2024, time.January, 2, 0, 4, 0, 0, time.UTC))

	result, err := exec.Execute(context.Background(), "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, Result{
		UserID:      "u1",
		TasksRolled: 1,
		FromDate:    date(2024, time.January, 1),
		ToDate:      date(2024, time.January, 2),
	}, result)

	task := store.tasks["t1"]
	assert.Equal(t, date(2024, time.January, 2), task.ScheduledFor)
	assert.Equal(t, 1, task.RolloverCount)

	audits := store.auditsFor("t1")
	require.Len(t, audits, 1)
	assert.Equal(t, date(2024, time.January, 1), *audits[0].FromDate)
	assert.Equal(t, date(2024, time.January, 2), *audits[0].ToDate)
	assert.Equal(t, 1, audits[0].RolloverCountAfter)
	assert.False(t, audits[0].Backfilled)

	// Second invocation for the same day is a no-op.
	result, err = exec.Execute(context.Background(), "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TasksRolled)
	assert.Equal(t, 1, store.tasks["t1"].RolloverCount)
	assert.Len(t, store.auditsFor("t1"), 1)
}

func TestExecuteEligibility(t *testing.T) {
	store := newFakeStore(
		newTask("done", "u1", model.StatusDone, date(2024, time.January, 1), 0),
		newTask("stale", "u1", model.StatusOpen, date(2023, time.December, 30), 0),
		newTask("today", "u1", model.StatusOpen, date(2024, time.January, 2), 0),
	)
	exec := executorAt(store, time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC))

	result, err := exec.Execute(context.Background(), "u1", "UTC")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TasksRolled)
	assert.Equal(t, date(2024, time.January, 1), store.tasks["done"].ScheduledFor)
	assert.Equal(t, date(2023, time.December, 30), store.tasks["stale"].ScheduledFor)
	assert.Equal(t, 0, store.tasks["today"].RolloverCount)
}

func TestExecuteContinuesPastFailingTask(t *testing.T) {
	store := newFakeStore(
		newTask("bad", "u1", model.StatusOpen, date(2024, time.January, 1), 0),
		newTask("good", "u1", model.StatusOpen, date(2024, time.January, 1), 0),
	)
	store.rollErrByTask["bad"] = errors.New("constraint violation")
	exec := executorAt(store, time.Date(2024, time.January, 2, 1, 0, 0, 0, time.UTC))

	result, err := exec.Execute(context.Background(), "u1", "UTC")
	require.NoError(t, err, "one task failing must not abort the user's run")
	assert.Equal(t, 1, result.TasksRolled)
	assert.Equal(t, 1, store.tasks["good"].RolloverCount)
	assert.Equal(t, 0, store.tasks["bad"].RolloverCount)
}

func TestExecuteStorageUnavailable(t *testing.T) {
	store := newFakeStore()
	store.findErrByUser["u1"] = errors.New("connection refused")
	exec := executorAt(store, time.Now())

	_, err := exec.Execute(context.Background(), "u1", "UTC")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestExecuteUnknownTimezone(t *testing.T) {
	exec := executorAt(newFakeStore(), time.Now())

	_, err := exec.Execute(context.Background(), "u1", "Nowhere/Invalid")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTimezone)
}

func TestBackfillHealsMultiDayGap(t *testing.T) {
	store := newFakeStore(newTask("t1", "u1", model.StatusOpen, date(2024, time.January, 1), 0))
	exec := executorAt(store, time.Date(2024, time.January, 4, 8, 0, 0, 0, time.UTC))

	results, err := exec.Backfill(context.Background(), "u1", "UTC", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Oldest day first; every day reported even when nothing rolled.
	assert.Equal(t, date(2024, time.January, 2), results[0].ToDate)
	assert.Equal(t, date(2024, time.January, 3), results[1].ToDate)
	assert.Equal(t, date(2024, time.January, 4), results[2].ToDate)
	for _, result := range results {
		assert.Equal(t, 1, result.TasksRolled)
	}

	task := store.tasks["t1"]
	assert.Equal(t, date(2024, time.January, 4), task.ScheduledFor)
	assert.Equal(t, 3, task.RolloverCount)

	audits := store.auditsFor("t1")
	require.Len(t, audits, 3)
	for _, audit := range audits {
		assert.True(t, audit.Backfilled)
	}
}

func TestBackfillMatchesSequentialDailyRuns(t *testing.T) {
	initial := func() *fakeStore {
		return newFakeStore(newTask("t1", "u1", model.StatusOpen, date(2024, time.January, 1), 0))
	}

	// Fleet A: the daily executor ran on time each of the three days.
	daily := initial()
	for day := 2; day <= 4; day++ {
		exec := executorAt(daily, time.Date(2024, time.January, day, 0, 2, 0, 0, time.UTC))
		_, err := exec.Execute(context.Background(), "u1", "UTC")
		require.NoError(t, err)
	}

	// Fleet B: the service was down and backfill repaired the gap.
	backfilled := initial()
	exec := executorAt(backfilled, time.Date(2024, time.January, 4, 10, 0, 0, 0, time.UTC))
	_, err := exec.Backfill(context.Background(), "u1", "UTC", 3)
	require.NoError(t, err)

	assert.Equal(t, daily.tasks["t1"].ScheduledFor, backfilled.tasks["t1"].ScheduledFor)
	assert.Equal(t, daily.tasks["t1"].RolloverCount, backfilled.tasks["t1"].RolloverCount)
	assert.Len(t, backfilled.auditsFor("t1"), len(daily.auditsFor("t1")))
}

func TestBackfillIsIdempotentAndSafeAlongsideDailyRun(t *testing.T) {
	store := newFakeStore(newTask("t1", "u1", model.StatusOpen, date(2024, time.January, 1), 0))
	now := time.Date(2024, time.January, 2, 0, 1, 0, 0, time.UTC)

	// Daily run already rolled today.
	_, err := executorAt(store, now).Execute(context.Background(), "u1", "UTC")
	require.NoError(t, err)

	// An overlapping backfill for the same day must not double-roll.
	results, err := executorAt(store, now).Backfill(context.Background(), "u1", "UTC", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].TasksRolled)
	assert.Equal(t, 1, store.tasks["t1"].RolloverCount)

	// Re-running the backfill is equally harmless.
	results, err = executorAt(store, now).Backfill(context.Background(), "u1", "UTC", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].TasksRolled)
	assert.Equal(t, 1, store.tasks["t1"].RolloverCount)
}

func TestBackfillZeroDays(t *testing.T) {
	exec := executorAt(newFakeStore(), time.Now())

	results, err := exec.Backfill(context.Background(), "u1", "UTC", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type fakeDirectory struct {
	users []model.User
	err   error
}

func (d *fakeDirectory) ListAll(context.Context) ([]model.User, error) {
	return d.users, d.err
}

func TestCoordinatorIsolatesFailingUsers(t *testing.T) {
	store := newFakeStore(
		newTask("a1", "userA", model.StatusOpen, date(2024, time.January, 1), 0),
		newTask("b1", "userB", model.StatusOpen, date(2024, time.January, 1), 0),
		newTask("b2", "userB", model.StatusOpen, date(2024, time.January, 1), 2),
	)
	store.findErrByUser["userA"] = errors.New("connection reset")

	directory := &fakeDirectory{users: []model.User{
		{ID: "userA", Timezone: "UTC"},
		{ID: "userB", Timezone: "UTC"},
	}}
	coordinator := NewCoordinator(directory, executorAt(store, time.Date(2024, time.January, 2, 0, 3, 0, 0, time.UTC)), 2)
	coordinator.now = func() time.Time { return time.Date(2024, time.January, 2, 0, 3, 0, 0, time.UTC) }

	report, err := coordinator.RunAll(context.Background())
	require.NoError(t, err)

	// userA is absent, userB's result is intact.
	require.Len(t, report.Results, 1)
	assert.Equal(t, "userB", report.Results[0].UserID)
	assert.Equal(t, 2, report.Results[0].TasksRolled)
	assert.Equal(t, 2, report.TasksRolled)
	assert.Equal(t, 1, store.tasks["b1"].RolloverCount)
	assert.Equal(t, 3, store.tasks["b2"].RolloverCount)
}

func TestCoordinatorSkipsMisconfiguredUser(t *testing.T) {
	store := newFakeStore(newTask("b1", "userB", model.StatusOpen, date(2024, time.January, 1), 0))
	directory := &fakeDirectory{users: []model.User{
		{ID: "userA", Timezone: "Not/AZone"},
		{ID: "userB", Timezone: "UTC"},
	}}
	coordinator := NewCoordinator(directory, executorAt(store, time.Date(2024, time.January, 2, 6, 0, 0, 0, time.UTC)), 1)

	report, err := coordinator.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "userB", report.Results[0].UserID)
}

func TestCoordinatorDirectoryUnavailable(t *testing.T) {
	directory := &fakeDirectory{err: errors.New("database is locked")}
	coordinator := NewCoordinator(directory, executorAt(newFakeStore(), time.Now()), 1)

	_, err := coordinator.RunAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestCoordinatorProcessesManyUsersConcurrently(t *testing.T) {
	var users []model.User
	store := newFakeStore()
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("user%02d", i)
		users = append(users, model.User{ID: id, Timezone: "UTC"})
		task := newTask(id+"-task", id, model.StatusOpen, date(2024, time.January, 1), 0)
		store.mu.Lock()
		store.tasks[task.ID] = task
		store.mu.Unlock()
	}

	coordinator := NewCoordinator(&fakeDirectory{users: users}, executorAt(store, time.Date(2024, time.January, 2, 0, 0, 30, 0, time.UTC)), 4)
	report, err := coordinator.RunAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Results, 25)
	assert.Equal(t, 25, report.TasksRolled)
}
