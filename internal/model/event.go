package model

import "time"

// Event represents a calendar entry on the fellowship calendar.
type Event struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"size:2048" json:"description"`
	Location    string    `gorm:"size:256" json:"location"`
	StartsAt    time.Time `gorm:"not null;index" json:"starts_at"`
	CreatedBy   string    `gorm:"size:64;not null" json:"created_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	RSVPs []RSVP `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

// RSVP statuses accepted by the API.
const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPDeclined = "declined"
)

// RSVP records one member's answer for one event. A member has at most one
// answer per event; re-answering replaces the previous row.
type RSVP struct {
	EventID   int64     `gorm:"uniqueIndex:idx_event_account;not null" json:"event_id"`
	UserID    string    `gorm:"uniqueIndex:idx_event_account;size:64;not null" json:"user_id"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
