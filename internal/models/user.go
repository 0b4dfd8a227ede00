package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account. Usernames are stored upper-cased so
// that lookups stay case-insensitive.
type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsOnline     bool   `json:"is_online"`
}

// BeforeCreate is a GORM hook that assigns a UUID if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Friendship is one directed edge of a friend relation. AddFriend always
// writes both directions in the same transaction, so the engine may treat
// the relation as mutual once both rows exist.
type Friendship struct {
	UserID   string `gorm:"primaryKey"`
	FriendID string `gorm:"primaryKey"`
}
