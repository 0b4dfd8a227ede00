package models

import "time"

// QueueMessage is a persisted message of a direct conversation.
type QueueMessage struct {
	ID        uint   `gorm:"primaryKey"`
	QueueID   string `gorm:"not null;index"`
	SenderID  string `gorm:"not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// TopicMessage is a persisted message of a group conversation.
type TopicMessage struct {
	ID        uint   `gorm:"primaryKey"`
	TopicID   string `gorm:"not null;index"`
	SenderID  string `gorm:"not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// Message is the read-side view returned by load_messages: the sender handle
// joined in, ordered by timestamp.
type Message struct {
	Username  string    `json:"username"`
	Body      string    `gorm:"column:body" json:"message"`
	Timestamp time.Time `gorm:"column:timestamp" json:"timestamp"`
}
