package rollover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tarbeev/planner/internal/model"
)

// ErrStorageUnavailable marks a failure to reach the task store at all,
// as opposed to a single task's write failing.
var ErrStorageUnavailable = errors.New("task store unavailable")

// TaskStore is the slice of persistence the engine needs. RollForward
// must perform its audit check, task update, and audit insert as one
// atomic unit per task, returning (false, nil) when the task already
// rolled onto the target day.
type TaskStore interface {
	FindOpenScheduledOn(ctx context.Context, userID string, date time.Time) ([]model.Task, error)
	RollForward(ctx context.Context, taskID string, from, to time.Time, newCount int, backfilled bool) (bool, error)
}

// UserDirectory lists the accounts rollover runs for.
type UserDirectory interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// Result summarizes one user's rollover for one day. Never persisted.
type Result struct {
	UserID      string    `json:"userId"`
	TasksRolled int       `json:"tasksRolled"`
	FromDate    time.Time `json:"fromDate"`
	ToDate      time.Time `json:"toDate"`
}

// Executor rolls one user's tasks forward by one day.
type Executor struct {
	store TaskStore
	now   func() time.Time
}

func NewExecutor(store TaskStore) *Executor {
	return &Executor{store: store, now: time.Now}
}

// Execute rolls the user's open tasks from their local yesterday onto
// their local today. Safe to call any number of times for the same day:
// already-rolled tasks are skipped by the store's audit check.
func (e *Executor) Execute(ctx context.Context, userID, timezone string) (Result, error) {
	today, err := LocalMidnight(timezone, e.now())
	if err != nil {
		return Result{}, fmt.Errorf("user %s: %w", userID, err)
	}
	return e.rollDay(ctx, userID, yesterdayOf(today), today, false)
}

// rollDay applies the rollover policy to every open task sitting on the
// from day. A single task's write failure is logged and skipped so the
// rest of the candidates still get their turn; only failing to read the
// candidate set aborts the run.
func (e *Executor) rollDay(ctx context.Context, userID string, from, to time.Time, backfilled bool) (Result, error) {
	candidates, err := e.store.FindOpenScheduledOn(ctx, userID, from)
	if err != nil {
		return Result{}, fmt.Errorf("%w: candidates for user %s on %s: %v",
			ErrStorageUnavailable, userID, model.FormatDate(from), err)
	}

	rolled := 0
	for _, task := range candidates {
		// The query already filtered, but the policy stays the
		// authority on eligibility.
		decision := Decide(Snapshot{
			Status:        task.Status,
			ScheduledFor:  task.ScheduledFor,
			RolloverCount: task.RolloverCount,
		}, to)
		if !decision.Roll {
			continue
		}

		ok, err := e.store.RollForward(ctx, task.ID, from, to, decision.NewRolloverCount, backfilled)
		if err != nil {
			log.Printf("rollover: user %s task %s: %v", userID, task.ID, err)
			continue
		}
		if ok {
			rolled++
		}
	}

	return Result{UserID: userID, TasksRolled: rolled, FromDate: from, ToDate: to}, nil
}
