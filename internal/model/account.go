package model

import "time"

// Account represents a fellowship member.
type Account struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// LegacyFCMToken is the old single-token-per-profile column. It is read
	// exactly once by the startup migration and cleared afterwards; nothing
	// else may consult it.
	LegacyFCMToken string `gorm:"size:512" json:"-"`

	// Associations
	DeviceTokens []DeviceToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
