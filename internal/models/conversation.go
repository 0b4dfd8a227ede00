package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // pq.StringArray for the member preview column
	"gorm.io/gorm"
)

// ConversationKind distinguishes a direct two-party chat from a group chat.
type ConversationKind string

const (
	KindQueue ConversationKind = "QUEUE"
	KindTopic ConversationKind = "TOPIC"
)

// ParseKind normalizes a client-supplied type string.
func ParseKind(s string) (ConversationKind, bool) {
	switch ConversationKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindQueue:
		return KindQueue, true
	case KindTopic:
		return KindTopic, true
	}
	return "", false
}

// ConversationRef is the canonical identity of a conversation. The ID is the
// only token ever passed to the broker proxy and the only realtime room key;
// human-facing names never leave the resolver.
type ConversationRef struct {
	ID   string
	Kind ConversationKind
}

// LinkQueue is the direct conversation between two friends. The pair is
// stored in canonical order (lexicographically smaller id first) under a
// composite unique index, so a concurrent add-friend race cannot create two
// conversations for the same pair.
type LinkQueue struct {
	ID      string `gorm:"primaryKey"`
	UserOne string `gorm:"not null;uniqueIndex:idx_queue_pair"`
	UserTwo string `gorm:"not null;uniqueIndex:idx_queue_pair"`
}

func (q *LinkQueue) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	q.UserOne, q.UserTwo = OrderPair(q.UserOne, q.UserTwo)
	return
}

// OrderPair returns the two ids in canonical storage order.
func OrderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Topic is a multi-party conversation owned by its creator.
type Topic struct {
	ID            string         `gorm:"primaryKey"`
	GroupName     string         `gorm:"uniqueIndex;not null"`
	OwnerID       string         `gorm:"not null"`
	MemberHandles pq.StringArray `gorm:"type:text[]"` // denormalized preview for group listings
	CreatedAt     time.Time
}

func (t *Topic) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return
}

// TopicMembership links a user to a topic.
type TopicMembership struct {
	TopicID string `gorm:"primaryKey"`
	UserID  string `gorm:"primaryKey"`
}
