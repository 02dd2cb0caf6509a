package domain

import "time"

// RefreshToken Model
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey"`                   // Primary key
	Token     string     `gorm:"uniqueIndex;size:100;not null"` // Opaque random token value
	UserID    string     `gorm:"index;size:36;not null"`        // Owning user
	User      User       `gorm:"constraint:OnDelete:CASCADE"`   // Cascade delete with the user
	CreatedAt time.Time  // Issued at
	ExpiresAt time.Time  `gorm:"not null"` // Hard expiry
	RevokedAt *time.Time // Set when the token is exchanged, nil while active
}

// Active reports whether the token can still be exchanged.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
