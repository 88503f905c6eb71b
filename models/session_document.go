package models

import "time"

// SessionDocument is an opaque JSON blob stored under a fixed key for one
// guest session ("lyrion_cart", "last_order").
type SessionDocument struct {
	SessionID string `gorm:"primaryKey;size:64"`
	Key       string `gorm:"primaryKey;column:doc_key;size:64"`
	Body      string `gorm:"type:text"`
	UpdatedAt time.Time
}
