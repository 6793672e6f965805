package model

import "time"

// DayNote holds free-text notes for one calendar day. One note per user per day.
type DayNote struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"index:idx_user_note_date,unique" json:"userId"`
	Date        time.Time `gorm:"index:idx_user_note_date,unique" json:"date"` // date-only, UTC midnight
	ContentText string    `json:"contentText"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
