package rollover

import (
	"time"

	"github.com/tarbeev/planner/internal/model"
)

// Snapshot is the slice of task state the policy looks at.
type Snapshot struct {
	Status        string
	ScheduledFor  time.Time
	RolloverCount int
}

// Decision is the policy outcome. When Roll is false the task is left
// alone; not being eligible is a no-op, not an error.
type Decision struct {
	Roll             bool
	NewScheduledFor  time.Time
	NewRolloverCount int
}

// Decide determines whether a task must roll onto targetDate. A task is
// eligible only when it is open and scheduled for exactly the preceding
// calendar day; tasks more than one day stale are reached by backfill
// walking day by day, never by a single decision. Pure function, no I/O.
func Decide(s Snapshot, targetDate time.Time) Decision {
	targetDate = model.DateOnly(targetDate)
	if s.Status != model.StatusOpen {
		return Decision{}
	}
	if !model.DateOnly(s.ScheduledFor).Equal(yesterdayOf(targetDate)) {
		return Decision{}
	}
	return Decision{
		Roll:             true,
		NewScheduledFor:  targetDate,
		NewRolloverCount: s.RolloverCount + 1,
	}
}
