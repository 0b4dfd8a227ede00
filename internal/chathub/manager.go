package chathub

import (
	"context"
	"log"

	"chatrelay/backend/internal/models"
)

// EventBus distributes room events across instances. Implemented by the Redis
// side of the storage service; nil means single-instance local delivery.
type EventBus interface {
	PublishEvent(ctx context.Context, ev models.RoomEvent) error
}

// Manager is the fan-out hub: it owns the room membership maps and delivers
// inbound events to every subscriber of a room. Rooms are keyed by
// conversation id only; the opaque id is the access boundary, so delivery
// performs no further authorization and no persistence.
type Manager struct {
	Clients map[string]Client            // conn id -> client
	Rooms   map[string]map[string]Client // room -> conn id -> client

	RegisterCh   chan Client
	UnregisterCh chan Client
	JoinCh       chan RoomChange
	LeaveCh      chan RoomChange
	BroadcastCh  chan models.RoomEvent

	bus EventBus
}

func NewManager(bus EventBus) *Manager {
	return &Manager{
		Clients:      make(map[string]Client),
		Rooms:        make(map[string]map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		JoinCh:       make(chan RoomChange),
		LeaveCh:      make(chan RoomChange),
		BroadcastCh:  make(chan models.RoomEvent, 64),
		bus:          bus,
	}
}

// Run is the hub's single owner goroutine; all state mutation happens here.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.RegisterCh:
			m.Clients[client.GetConnID()] = client

		case client := <-m.UnregisterCh:
			m.dropClient(client)

		case change := <-m.JoinCh:
			m.join(change.Client, change.Room)

		case change := <-m.LeaveCh:
			m.leave(change.Client)

		case ev := <-m.BroadcastCh:
			m.deliver(ev)
		}
	}
}

// Emit routes an inbound broker callback to the room's subscribers. With a
// bus configured the event goes through Redis so every instance delivers it;
// otherwise it is handled locally.
func (m *Manager) Emit(ctx context.Context, room, username, message string) error {
	ev := models.RoomEvent{Room: room, Username: username, Message: message}
	if m.bus != nil {
		return m.bus.PublishEvent(ctx, ev)
	}
	m.BroadcastCh <- ev
	return nil
}

func (m *Manager) join(client Client, room string) {
	if room == "" {
		return
	}
	// A connection subscribes to one room at a time, mirroring the
	// one-binding-per-session rule.
	m.leave(client)
	if m.Rooms[room] == nil {
		m.Rooms[room] = make(map[string]Client)
	}
	m.Rooms[room][client.GetConnID()] = client
	client.SetRoom(room)
}

func (m *Manager) leave(client Client) {
	room := client.GetRoom()
	if room == "" {
		return
	}
	if subs, ok := m.Rooms[room]; ok {
		delete(subs, client.GetConnID())
		if len(subs) == 0 {
			delete(m.Rooms, room)
		}
	}
	client.SetRoom("")
}

func (m *Manager) deliver(ev models.RoomEvent) {
	event := models.Event{Event: "new_message", Username: ev.Username, Message: ev.Message}
	for _, client := range m.Rooms[ev.Room] {
		select {
		case client.GetSendChannel() <- event:
		default:
			// Slow consumer: drop the connection rather than block the hub.
			log.Printf("WARN: dropping slow client %s in room %s", client.GetConnID(), ev.Room)
			m.dropClient(client)
		}
	}
}

func (m *Manager) dropClient(client Client) {
	if _, ok := m.Clients[client.GetConnID()]; !ok {
		return
	}
	m.leave(client)
	delete(m.Clients, client.GetConnID())
	client.Close()
}
