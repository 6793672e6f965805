package model

import "time"

// TaskHistory kinds.
const (
	HistoryCreate   = "create"
	HistoryEdit     = "edit"
	HistoryComplete = "complete"
	HistoryReopen   = "reopen"
	HistoryRollover = "rollover"
)

// TaskHistory is an append-only audit record. Rollover records carry the
// move as typed columns; the unique (task_id, to_date) index is the
// idempotency key that prevents a task from rolling to the same day
// twice. ToDate is null for non-rollover kinds, which SQLite treats as
// distinct, so only rollover records contend on the index.
type TaskHistory struct {
	ID                 string     `gorm:"primaryKey" json:"id"`
	TaskID             string     `gorm:"index;index:idx_task_rollover_to,unique" json:"taskId"`
	Kind               string     `json:"kind"`
	FromDate           *time.Time `json:"fromDate"`
	ToDate             *time.Time `gorm:"index:idx_task_rollover_to,unique" json:"toDate"`
	RolloverCountAfter int        `json:"rolloverCountAfter"`
	Backfilled         bool       `json:"backfilled"`
	CreatedAt          time.Time  `json:"createdAt"`
}
