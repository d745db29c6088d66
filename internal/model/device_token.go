package model

import "time"

// DeviceInfo is introspected client metadata attached to a registration.
// It is informational only; no lifecycle decision depends on it.
type DeviceInfo struct {
	UserAgent    string `gorm:"size:512" json:"user_agent"`
	Platform     string `gorm:"size:64" json:"platform"`
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	Timezone     string `gorm:"size:64" json:"timezone"`
	Mobile       bool   `json:"mobile"`
}

// DeviceToken maps one (user, device) pair to a provider push token.
// The uniqueness constraint on Token is the concurrency-control mechanism
// for re-registrations: an insert racing an existing row falls back to an
// in-place update instead of creating a duplicate.
type DeviceToken struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	UserID    string     `gorm:"index;size:64;not null" json:"user_id"`
	Token     string     `gorm:"uniqueIndex;size:512;not null" json:"-"`
	Device    DeviceInfo `gorm:"embedded;embeddedPrefix:device_" json:"device"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	LastUsed  time.Time  `gorm:"not null;index" json:"last_used"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`

	// Associations
	Account Account `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
