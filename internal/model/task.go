package model

import "time"

// Task statuses.
const (
	StatusOpen = "open"
	StatusDone = "done"
)

// Task represents a single item in the planner, pinned to a calendar day.
type Task struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	UserID        string     `gorm:"index" json:"userId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `gorm:"default:open" json:"status"`
	ScheduledFor  time.Time  `gorm:"index" json:"scheduledFor"` // date-only, stored at UTC midnight
	DueDate       *time.Time `json:"dueDate"`
	Priority      string     `json:"priority"`      // low, med, high; empty means unset
	PositionIndex int        `json:"positionIndex"` // ordering within a day column
	RolloverCount int        `gorm:"default:0" json:"rolloverCount"` // times carried forward; only ever increases
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Tags          []Tag      `gorm:"many2many:task_tags" json:"tags"`
}
