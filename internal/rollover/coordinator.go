package rollover

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Report aggregates one fleet run.
type Report struct {
	Results     []Result `json:"results"`
	TasksRolled int      `json:"totalTasksRolled"`
}

// Coordinator runs the Executor for every user in the directory. Users
// are independent, so they run on a bounded pool; a failing user is
// logged and left out of the report rather than stopping the fleet.
// Callers can diff the report's user ids against the directory to spot
// failures.
type Coordinator struct {
	directory UserDirectory
	exec      *Executor
	workers   int
	now       func() time.Time
}

func NewCoordinator(directory UserDirectory, exec *Executor, workers int) *Coordinator {
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{directory: directory, exec: exec, workers: workers, now: time.Now}
}

// RunAll performs rollover for the whole fleet.
func (c *Coordinator) RunAll(ctx context.Context) (Report, error) {
	users, err := c.directory.ListAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("%w: list users: %v", ErrStorageUnavailable, err)
	}

	var (
		mu     sync.Mutex
		report Report
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)
	for _, user := range users {
		group.Go(func() error {
			result, err := c.exec.Execute(groupCtx, user.ID, user.Timezone)
			if err != nil {
				log.Printf("rollover: user %s excluded from run: %v", user.ID, err)
				return nil
			}
			if result.TasksRolled > 0 {
				// Rolls normally land in the first minutes after
				// local midnight; work done later than that means
				// the daily trigger was late for this user.
				if onTime, werr := WithinRolloverWindow(user.Timezone, c.now()); werr == nil && !onTime {
					log.Printf("rollover: user %s rolled %d tasks outside the midnight window", user.ID, result.TasksRolled)
				}
			}
			mu.Lock()
			report.Results = append(report.Results, result)
			report.TasksRolled += result.TasksRolled
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only observes ctx cancellation.
	_ = group.Wait()

	return report, ctx.Err()
}
