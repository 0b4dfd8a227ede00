package engine

import (
	"context"
	"fmt"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

// Resolver maps a (requester, target name, kind) triple to the canonical
// conversation identity, enforcing friendship and membership on the way.
// It is a pure lookup: conversations are created by the friend-add and
// group-creation flows, never lazily here.
type Resolver struct {
	dir storage.Directory
}

func NewResolver(dir storage.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the conversation the requester is allowed to address by
// the given name, or ErrNotFound/ErrForbidden.
func (r *Resolver) Resolve(ctx context.Context, requesterID, targetName string, kind models.ConversationKind) (models.ConversationRef, error) {
	switch kind {
	case models.KindQueue:
		return r.resolveQueue(ctx, requesterID, targetName)
	case models.KindTopic:
		return r.resolveTopic(ctx, requesterID, targetName)
	}
	return models.ConversationRef{}, fmt.Errorf("%w: type must be QUEUE or TOPIC", ErrValidation)
}

func (r *Resolver) resolveQueue(ctx context.Context, requesterID, handle string) (models.ConversationRef, error) {
	friend, found, err := r.dir.FindUserByHandle(ctx, handle)
	if err != nil {
		return models.ConversationRef{}, err
	}
	if !found {
		return models.ConversationRef{}, fmt.Errorf("%w: user %q", ErrNotFound, handle)
	}

	// Both directed edges must exist for the pair to count as friends.
	forward, err := r.dir.FindFriendship(ctx, requesterID, friend.ID)
	if err != nil {
		return models.ConversationRef{}, err
	}
	reverse, err := r.dir.FindFriendship(ctx, friend.ID, requesterID)
	if err != nil {
		return models.ConversationRef{}, err
	}
	if !forward || !reverse {
		return models.ConversationRef{}, fmt.Errorf("%w: not friends with %q", ErrForbidden, handle)
	}

	queue, found, err := r.dir.FindQueue(ctx, requesterID, friend.ID)
	if err != nil {
		return models.ConversationRef{}, err
	}
	if !found {
		return models.ConversationRef{}, fmt.Errorf("%w: no conversation with %q", ErrNotFound, handle)
	}
	return models.ConversationRef{ID: queue.ID, Kind: models.KindQueue}, nil
}

func (r *Resolver) resolveTopic(ctx context.Context, requesterID, groupName string) (models.ConversationRef, error) {
	topic, found, err := r.dir.FindTopicByName(ctx, groupName)
	if err != nil {
		return models.ConversationRef{}, err
	}
	if !found {
		return models.ConversationRef{}, fmt.Errorf("%w: group %q", ErrNotFound, groupName)
	}

	member, err := r.dir.FindMembership(ctx, topic.ID, requesterID)
	if err != nil {
		return models.ConversationRef{}, err
	}
	if !member {
		return models.ConversationRef{}, fmt.Errorf("%w: not a member of %q", ErrForbidden, groupName)
	}
	return models.ConversationRef{ID: topic.ID, Kind: models.KindTopic}, nil
}
