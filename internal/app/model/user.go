package model

import "time"

// User owns a credit balance that is charged one credit per redirect.
type User struct {
	UID         string    `json:"uid" gorm:"primaryKey;size:128"`
	Credits     int64     `json:"credits" gorm:"not null;default:0;check:credits >= 0"`
	DisplayName string    `json:"display_name" gorm:"size:255"`
	Email       string    `json:"email" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
}
