package model

import "time"

// User is an account holder. Timezone is an IANA identifier used to
// compute the user's local midnight for rollover.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Timezone     string    `gorm:"default:UTC" json:"timezone"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
