package model

import "time"

// Link describes a short link owned by a paying user.
type Link struct {
	ID          string     `json:"link_id" gorm:"primaryKey;size:64"`
	OriginalURL string     `json:"original_url" gorm:"type:text;not null"`
	OwnerUserID string     `json:"user_id" gorm:"size:128;not null;index"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" gorm:"index"`
}

// Expired reports whether the link is logically deleted at now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
