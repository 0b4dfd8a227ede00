package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

// BrokerBridge is the outbound side of the engine: it turns bind/send/unbind
// intents into calls against the broker proxy.
type BrokerBridge interface {
	Open(ctx context.Context, conversationID string, kind models.ConversationKind) error
	Publish(ctx context.Context, conversationID, senderHandle, body string, kind models.ConversationKind) error
	Close(ctx context.Context) error
}

// Status of a session's broker connection.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
)

// binding is the per-session state: at most one bound conversation at any
// time. Its mutex serializes connect/send/disconnect for the session,
// including across the blocking proxy calls.
type binding struct {
	mu sync.Mutex

	status           Status
	conversationID   string
	conversationName string
	kind             models.ConversationKind
}

// Binder owns the connect -> send -> disconnect state machine, one binding per
// authenticated session. Broker status is never shared across sessions.
type Binder struct {
	mu       sync.Mutex
	sessions map[string]*binding

	resolver *Resolver
	bridge   BrokerBridge
	dir      storage.Directory
}

func NewBinder(resolver *Resolver, bridge BrokerBridge, dir storage.Directory) *Binder {
	return &Binder{
		sessions: make(map[string]*binding),
		resolver: resolver,
		bridge:   bridge,
		dir:      dir,
	}
}

func (b *Binder) session(sessionID string) *binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[sessionID]
	if !ok {
		s = &binding{status: StatusIdle}
		b.sessions[sessionID] = s
	}
	return s
}

// Connect resolves the target name and opens a broker subscription for the
// resolved conversation. A session already connected elsewhere is implicitly
// disconnected first; a bridge failure leaves the session Idle.
func (b *Binder) Connect(ctx context.Context, sessionID, requesterID, targetName string, kind models.ConversationKind) (models.ConversationRef, error) {
	s := b.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusConnected {
		// One session, one live conversation: drop the old binding before
		// opening the new one. The close result does not gate the switch.
		if err := b.bridge.Close(ctx); err != nil {
			log.Printf("WARN: implicit disconnect of session %s failed: %v", sessionID, err)
		}
		s.reset()
	}

	ref, err := b.resolver.Resolve(ctx, requesterID, targetName, kind)
	if err != nil {
		return models.ConversationRef{}, err
	}

	s.status = StatusConnecting
	if err := b.bridge.Open(ctx, ref.ID, ref.Kind); err != nil {
		s.reset()
		return models.ConversationRef{}, err
	}

	s.status = StatusConnected
	s.conversationID = ref.ID
	s.conversationName = targetName
	s.kind = ref.Kind
	return ref, nil
}

// Send publishes a message on the bound conversation and then appends it to
// the store. The target name is re-resolved on every call, so membership is
// re-checked each send, and the result must match the bound conversation.
// If the durable append fails after a successful publish the error is
// reported but the publish stands: delivery is not transactional with
// storage.
func (b *Binder) Send(ctx context.Context, sessionID, requesterID, senderHandle, targetName, body string, kind models.ConversationKind) error {
	s := b.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusConnected {
		return fmt.Errorf("%w: connect to a chat first", ErrNotConnected)
	}

	ref, err := b.resolver.Resolve(ctx, requesterID, targetName, kind)
	if err != nil {
		return err
	}
	if ref.ID != s.conversationID {
		return fmt.Errorf("%w: session is bound to a different conversation", ErrStaleBinding)
	}

	if err := b.bridge.Publish(ctx, ref.ID, senderHandle, body, ref.Kind); err != nil {
		return err
	}

	if err := b.dir.AppendMessage(ctx, ref, requesterID, body); err != nil {
		log.Printf("ERROR: append after publish failed for conversation %s: %v", ref.ID, err)
		return fmt.Errorf("%w: %v", ErrAppendFailed, err)
	}
	return nil
}

// Disconnect closes the broker subscription. The local binding is cleared no
// matter what the proxy answers, so a session can never be stuck connected.
// Called while Idle it returns ErrNotConnected and changes nothing.
func (b *Binder) Disconnect(ctx context.Context, sessionID string) error {
	s := b.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusConnected {
		return fmt.Errorf("%w: no active connection", ErrNotConnected)
	}

	err := b.bridge.Close(ctx)
	s.reset()
	if err != nil {
		return err
	}
	return nil
}

// LoadMessages returns the history of a conversation the requester is
// authorized for. Reading history does not require an active binding.
func (b *Binder) LoadMessages(ctx context.Context, requesterID, targetName string, kind models.ConversationKind) ([]models.Message, error) {
	ref, err := b.resolver.Resolve(ctx, requesterID, targetName, kind)
	if err != nil {
		return nil, err
	}
	return b.dir.ListMessages(ctx, ref)
}

// DropSession forgets a terminated session, closing its broker subscription
// if one is still open.
func (b *Binder) DropSession(ctx context.Context, sessionID string) {
	b.mu.Lock()
	s, ok := b.sessions[sessionID]
	delete(b.sessions, sessionID)
	b.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusConnected {
		if err := b.bridge.Close(ctx); err != nil {
			log.Printf("WARN: closing broker subscription for dropped session %s failed: %v", sessionID, err)
		}
	}
	s.reset()
}

// BoundConversation reports the session's current binding, if any.
func (b *Binder) BoundConversation(sessionID string) (models.ConversationRef, bool) {
	s := b.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusConnected {
		return models.ConversationRef{}, false
	}
	return models.ConversationRef{ID: s.conversationID, Kind: s.kind}, true
}

func (s *binding) reset() {
	s.status = StatusIdle
	s.conversationID = ""
	s.conversationName = ""
	s.kind = ""
}
