package models

import "time"

// AccessCode is the database-backed form of a discount access code. Version is
// bumped on every write and checked on update (compare-and-swap).
type AccessCode struct {
	Code            string                 `gorm:"primaryKey;size:64" json:"code"`
	Owner           string                 `json:"owner"`
	DiscountPercent int                    `json:"discount_percent"`
	ExpiresAt       time.Time              `json:"expires_at"`
	UsesRemaining   int                    `json:"uses_remaining"`
	Status          string                 `gorm:"type:VARCHAR(20);default:'active'" json:"status"`
	Version         int                    `gorm:"not null;default:1" json:"version"`
	Conversions     []AccessCodeConversion `gorm:"foreignKey:Code;references:Code;constraint:OnDelete:CASCADE" json:"conversions"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type AccessCodeConversion struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Code       string    `gorm:"index;size:64" json:"code"`
	SessionID  string    `json:"session_id"`
	Amount     string    `json:"amount"`
	RedeemedAt time.Time `json:"redeemed_at"`
}
