package chathub

import (
	"context"
	"encoding/json"
	"log"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

// StartPubSubListener subscribes to the shared Redis event channel and feeds
// everything into the hub's broadcast loop. Events published by this instance
// come back through the same subscription, so local delivery needs no special
// case.
func (m *Manager) StartPubSubListener(s *storage.Service) {
	go func() {
		ctx := context.Background()
		pubsub := s.SubscribeEvents(ctx)
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var ev models.RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("Error unmarshalling pub/sub event: %v", err)
				continue
			}
			m.BroadcastCh <- ev
		}
	}()
}
