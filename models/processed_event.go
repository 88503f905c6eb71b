package models

import "time"

// ProcessedEvent records a payment webhook event id so redeliveries are
// acknowledged without repeating side effects.
type ProcessedEvent struct {
	EventID     string    `gorm:"primaryKey;size:255" json:"event_id"`
	EventType   string    `json:"event_type"`
	Outcome     string    `gorm:"type:VARCHAR(20)" json:"outcome"`
	ProcessedAt time.Time `json:"processed_at"`
}
