package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chatrelay/backend/internal/engine"
	"chatrelay/backend/internal/models"
)

func TestResolver_QueueUserNotFound(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("FindUserByHandle", mock.Anything, "GHOST").Return(nil, false, nil)

	r := engine.NewResolver(dir)
	_, err := r.Resolve(context.Background(), "u1", "GHOST", models.KindQueue)

	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestResolver_QueueNotMutualFriends(t *testing.T) {
	dir := new(MockDirectory)
	bob := &models.User{ID: "u2", Username: "BOB"}
	dir.On("FindUserByHandle", mock.Anything, "BOB").Return(bob, true, nil)
	// Only the forward edge exists: not mutual, so forbidden.
	dir.On("FindFriendship", mock.Anything, "u1", "u2").Return(true, nil)
	dir.On("FindFriendship", mock.Anything, "u2", "u1").Return(false, nil)

	r := engine.NewResolver(dir)
	_, err := r.Resolve(context.Background(), "u1", "BOB", models.KindQueue)

	assert.ErrorIs(t, err, engine.ErrForbidden)
	dir.AssertNotCalled(t, "FindQueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_QueueMissingConversation(t *testing.T) {
	dir := new(MockDirectory)
	bob := &models.User{ID: "u2", Username: "BOB"}
	dir.On("FindUserByHandle", mock.Anything, "BOB").Return(bob, true, nil)
	dir.On("FindFriendship", mock.Anything, "u1", "u2").Return(true, nil)
	dir.On("FindFriendship", mock.Anything, "u2", "u1").Return(true, nil)
	dir.On("FindQueue", mock.Anything, "u1", "u2").Return(nil, false, nil)

	r := engine.NewResolver(dir)
	_, err := r.Resolve(context.Background(), "u1", "BOB", models.KindQueue)

	// Queues are created only by the friend-add flow, never lazily.
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestResolver_QueueResolvesForBothSides(t *testing.T) {
	queue := &models.LinkQueue{ID: "q1", UserOne: "u1", UserTwo: "u2"}

	for _, requester := range []string{"u1", "u2"} {
		dir := new(MockDirectory)
		other := "u2"
		handle := "BOB"
		if requester == "u2" {
			other = "u1"
			handle = "ALICE"
		}
		dir.On("FindUserByHandle", mock.Anything, handle).Return(&models.User{ID: other, Username: handle}, true, nil)
		dir.On("FindFriendship", mock.Anything, requester, other).Return(true, nil)
		dir.On("FindFriendship", mock.Anything, other, requester).Return(true, nil)
		dir.On("FindQueue", mock.Anything, requester, other).Return(queue, true, nil)

		r := engine.NewResolver(dir)
		ref, err := r.Resolve(context.Background(), requester, handle, models.KindQueue)

		assert.NoError(t, err)
		assert.Equal(t, "q1", ref.ID, "both participants must resolve to the same conversation")
		assert.Equal(t, models.KindQueue, ref.Kind)
	}
}

func TestResolver_TopicNotFound(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("FindTopicByName", mock.Anything, "NOPE").Return(nil, false, nil)

	r := engine.NewResolver(dir)
	_, err := r.Resolve(context.Background(), "u1", "NOPE", models.KindTopic)

	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestResolver_TopicNonMemberForbidden(t *testing.T) {
	dir := new(MockDirectory)
	topic := &models.Topic{ID: "t1", GroupName: "STUDY GROUP"}
	dir.On("FindTopicByName", mock.Anything, "STUDY GROUP").Return(topic, true, nil)
	dir.On("FindMembership", mock.Anything, "t1", "u9").Return(false, nil)

	r := engine.NewResolver(dir)
	_, err := r.Resolve(context.Background(), "u9", "STUDY GROUP", models.KindTopic)

	assert.ErrorIs(t, err, engine.ErrForbidden)
}

func TestResolver_TopicMemberResolves(t *testing.T) {
	dir := new(MockDirectory)
	topic := &models.Topic{ID: "t1", GroupName: "STUDY GROUP"}
	dir.On("FindTopicByName", mock.Anything, "Study Group").Return(topic, true, nil)
	dir.On("FindMembership", mock.Anything, "t1", "u1").Return(true, nil)

	r := engine.NewResolver(dir)
	ref, err := r.Resolve(context.Background(), "u1", "Study Group", models.KindTopic)

	assert.NoError(t, err)
	assert.Equal(t, models.ConversationRef{ID: "t1", Kind: models.KindTopic}, ref)
}

func TestResolver_InvalidKind(t *testing.T) {
	r := engine.NewResolver(new(MockDirectory))
	_, err := r.Resolve(context.Background(), "u1", "BOB", models.ConversationKind("FANOUT"))

	assert.ErrorIs(t, err, engine.ErrValidation)
}
