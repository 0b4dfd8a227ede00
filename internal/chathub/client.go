package chathub

import "chatrelay/backend/internal/models"

// Client is one live realtime connection. It abstracts the underlying
// transport so the hub can manage connections uniformly.
type Client interface {
	// GetConnID returns the unique identifier of this connection.
	GetConnID() string
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() string
	// GetRoom returns the conversation id the connection is subscribed to,
	// or "" when it has not joined a room yet.
	GetRoom() string
	// SetRoom is called by the hub when the connection joins or leaves.
	SetRoom(room string)

	// GetSendChannel returns the channel the hub pushes events into.
	GetSendChannel() chan<- models.Event

	// Run starts the connection's read and write pumps.
	Run()
	// Close shuts down the connection's send channel.
	Close()
}

// RoomChange is a join or leave command for the hub.
type RoomChange struct {
	Client Client
	Room   string
}
