package model

import "time"

// Tag labels tasks for search (#tag queries).
type Tag struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_tag_name,unique" json:"userId"`
	Name      string    `gorm:"index:idx_user_tag_name,unique" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
