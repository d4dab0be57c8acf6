package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string `gorm:"not null"`
	Bio          string
	ProfilePic   string
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type MessageModel struct {
	ID         string `gorm:"primaryKey"`
	SenderID   string `gorm:"not null;index:idx_messages_pair"`
	ReceiverID string `gorm:"not null;index:idx_messages_pair;index:idx_messages_unseen"`
	Text       string
	Image      string
	Seen       bool           `gorm:"not null;default:false;index:idx_messages_unseen"`
	Reactions  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"not null;index"`
}
