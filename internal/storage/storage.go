package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"chatrelay/backend/internal/models"
)

// Directory is the engine-facing view of the relational store. Lookups report
// found/not-found instead of turning an absent row into an error.
type Directory interface {
	FindUserByHandle(ctx context.Context, handle string) (*models.User, bool, error)
	FindFriendship(ctx context.Context, userID, friendID string) (bool, error)
	FindQueue(ctx context.Context, userA, userB string) (*models.LinkQueue, bool, error)
	FindTopicByName(ctx context.Context, name string) (*models.Topic, bool, error)
	FindMembership(ctx context.Context, topicID, userID string) (bool, error)

	AppendMessage(ctx context.Context, ref models.ConversationRef, senderID, body string) error
	ListMessages(ctx context.Context, ref models.ConversationRef) ([]models.Message, error)
}

// Service implements Directory on PostgreSQL and carries the Redis client
// used by the realtime fan-out bridge.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewService Constructor
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// NormalizeName folds a handle or group name to its canonical stored form.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (s *Service) FindUserByHandle(ctx context.Context, handle string) (*models.User, bool, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("username = ?", NormalizeName(handle)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func (s *Service) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// FindFriendship checks a single directed edge.
func (s *Service) FindFriendship(ctx context.Context, userID, friendID string) (bool, error) {
	var edge models.Friendship
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindQueue looks up the direct conversation between two users, whichever
// order they are given in.
func (s *Service) FindQueue(ctx context.Context, userA, userB string) (*models.LinkQueue, bool, error) {
	one, two := models.OrderPair(userA, userB)
	var queue models.LinkQueue
	err := s.DB.WithContext(ctx).
		Where("user_one = ? AND user_two = ?", one, two).
		First(&queue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &queue, true, nil
}

func (s *Service) FindTopicByName(ctx context.Context, name string) (*models.Topic, bool, error) {
	var topic models.Topic
	err := s.DB.WithContext(ctx).Where("group_name = ?", NormalizeName(name)).First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &topic, true, nil
}

func (s *Service) FindMembership(ctx context.Context, topicID, userID string) (bool, error) {
	var m models.TopicMembership
	err := s.DB.WithContext(ctx).
		Where("topic_id = ? AND user_id = ?", topicID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AppendMessage durably stores a message in the table matching the
// conversation kind.
func (s *Service) AppendMessage(ctx context.Context, ref models.ConversationRef, senderID, body string) error {
	switch ref.Kind {
	case models.KindQueue:
		msg := models.QueueMessage{QueueID: ref.ID, SenderID: senderID, Body: body}
		return s.DB.WithContext(ctx).Create(&msg).Error
	case models.KindTopic:
		msg := models.TopicMessage{TopicID: ref.ID, SenderID: senderID, Body: body}
		return s.DB.WithContext(ctx).Create(&msg).Error
	}
	return fmt.Errorf("unknown conversation kind %q", ref.Kind)
}

// ListMessages returns the conversation history in timestamp order, with the
// sender handle joined in.
func (s *Service) ListMessages(ctx context.Context, ref models.ConversationRef) ([]models.Message, error) {
	table, fk := "queue_messages", "queue_id"
	if ref.Kind == models.KindTopic {
		table, fk = "topic_messages", "topic_id"
	}

	var history []models.Message
	err := s.DB.WithContext(ctx).
		Table(table).
		Select(table+".body AS body, "+table+".created_at AS timestamp, users.username AS username").
		Joins("JOIN users ON users.id = "+table+".sender_id").
		Where(table+"."+fk+" = ?", ref.ID).
		Order(table + ".created_at asc").
		Scan(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to load history for conversation %s: %v", ref.ID, err)
		return nil, err
	}
	return history, nil
}

// CreateUser stores a new user. The unique index on username is the final
// arbiter against duplicate registration races.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Create(user).Error
}

// SetOnline flips the presence flag on login/logout.
func (s *Service) SetOnline(ctx context.Context, userID string, online bool) error {
	return s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_online", online).Error
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Order("username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// AddFriend writes both directed friendship edges and the pair's LinkQueue in
// one transaction. This replaces the storage-level mirroring trigger of the
// legacy schema: the reverse edge and the conversation exist as soon as the
// call returns, or not at all.
func (s *Service) AddFriend(ctx context.Context, userID, friendID string) (*models.LinkQueue, error) {
	queue := &models.LinkQueue{UserOne: userID, UserTwo: friendID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Friendship{UserID: userID, FriendID: friendID}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Friendship{UserID: friendID, FriendID: userID}).Error; err != nil {
			return err
		}
		return tx.Create(queue).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to add friend pair (%s, %s): %v", userID, friendID, err)
		return nil, err
	}
	return queue, nil
}

// CreateGroup creates the topic and every membership (owner included) in one
// transaction.
func (s *Service) CreateGroup(ctx context.Context, owner *models.User, groupName string, members []*models.User) (*models.Topic, error) {
	handles := make([]string, 0, len(members)+1)
	handles = append(handles, owner.Username)
	for _, m := range members {
		handles = append(handles, m.Username)
	}

	topic := &models.Topic{
		GroupName:     NormalizeName(groupName),
		OwnerID:       owner.ID,
		MemberHandles: handles,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(topic).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.TopicMembership{TopicID: topic.ID, UserID: owner.ID}).Error; err != nil {
			return err
		}
		for _, m := range members {
			if err := tx.Create(&models.TopicMembership{TopicID: topic.ID, UserID: m.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to create group %s: %v", groupName, err)
		return nil, err
	}
	return topic, nil
}

const eventChannel = "chat:events"

// PublishEvent pushes a room event onto the shared Redis channel so every
// instance can deliver it to its local subscribers.
func (s *Service) PublishEvent(ctx context.Context, ev models.RoomEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, eventChannel, payload).Err()
}

// SubscribeEvents opens the pub/sub subscription consumed by the fan-out hub.
func (s *Service) SubscribeEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, eventChannel)
}
