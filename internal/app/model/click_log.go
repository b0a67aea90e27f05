package model

import "time"

// Location is the client-supplied position of a visitor.
type Location struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// ClickLog is an append-only record of one paid redirect.
type ClickLog struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	LinkID    string    `json:"link_id" gorm:"size:64;not null"`
	UserID    string    `json:"user_id" gorm:"size:128;not null;index"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
	Location  Location  `json:"location" gorm:"embedded;embeddedPrefix:location_"`
}

const (
	ClickStreamName     = "CLICK_LOGS"
	ClickStreamSubject  = "clicks.logs"
	ClickConsumerName   = "click-log-writer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
