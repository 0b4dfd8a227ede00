package engine_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chatrelay/backend/internal/models"
)

// MockDirectory is a mock implementation of the storage.Directory interface.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindUserByHandle(ctx context.Context, handle string) (*models.User, bool, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockDirectory) FindFriendship(ctx context.Context, userID, friendID string) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) FindQueue(ctx context.Context, userA, userB string) (*models.LinkQueue, bool, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.LinkQueue), args.Bool(1), args.Error(2)
}

func (m *MockDirectory) FindTopicByName(ctx context.Context, name string) (*models.Topic, bool, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Topic), args.Bool(1), args.Error(2)
}

func (m *MockDirectory) FindMembership(ctx context.Context, topicID, userID string) (bool, error) {
	args := m.Called(ctx, topicID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) AppendMessage(ctx context.Context, ref models.ConversationRef, senderID, body string) error {
	args := m.Called(ctx, ref, senderID, body)
	return args.Error(0)
}

func (m *MockDirectory) ListMessages(ctx context.Context, ref models.ConversationRef) ([]models.Message, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MockBridge is a mock implementation of the BrokerBridge interface.
type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) Open(ctx context.Context, conversationID string, kind models.ConversationKind) error {
	args := m.Called(ctx, conversationID, kind)
	return args.Error(0)
}

func (m *MockBridge) Publish(ctx context.Context, conversationID, senderHandle, body string, kind models.ConversationKind) error {
	args := m.Called(ctx, conversationID, senderHandle, body, kind)
	return args.Error(0)
}

func (m *MockBridge) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
