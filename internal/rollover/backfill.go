package rollover

import (
	"context"
	"fmt"

	"github.com/tarbeev/planner/internal/model"
)

// Backfill replays rollover for daysMissed consecutive missed days,
// oldest first, so a multi-day outage heals without double rollovers:
// each replayed day reuses the same per-task audit check as the daily
// run, so re-running a backfill, or overlapping one with a live daily
// run, cannot roll a task twice. Returns one Result per day, including
// days where nothing needed rolling.
func (e *Executor) Backfill(ctx context.Context, userID, timezone string, daysMissed int) ([]Result, error) {
	if daysMissed <= 0 {
		return nil, nil
	}

	today, err := LocalMidnight(timezone, e.now())
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}

	results := make([]Result, 0, daysMissed)
	for i := daysMissed; i > 0; i-- {
		targetDate := model.AddDays(today, -(i - 1))
		result, err := e.rollDay(ctx, userID, yesterdayOf(targetDate), targetDate, true)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
