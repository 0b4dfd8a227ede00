package models

// RoomEvent travels over the Redis pub/sub channel between instances. Room is
// always a conversation id, never a human-facing name.
type RoomEvent struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Event is what the hub pushes to a websocket subscriber.
type Event struct {
	Event    string `json:"event"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ControlFrame is a client-to-server websocket frame: join or leave a room.
type ControlFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}
