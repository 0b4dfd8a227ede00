package chathub_test

import (
	"chatrelay/backend/internal/models"
)

// mockClient is a minimal Client implementation whose send channel the tests
// read directly.
type mockClient struct {
	connID string
	userID string
	room   string
	Recv   chan models.Event
	closed bool
}

func newMockClient(connID, userID string) *mockClient {
	return &mockClient{
		connID: connID,
		userID: userID,
		Recv:   make(chan models.Event, 8),
	}
}

func (c *mockClient) GetConnID() string                   { return c.connID }
func (c *mockClient) GetUserID() string                   { return c.userID }
func (c *mockClient) GetRoom() string                     { return c.room }
func (c *mockClient) SetRoom(room string)                 { c.room = room }
func (c *mockClient) GetSendChannel() chan<- models.Event { return c.Recv }
func (c *mockClient) Run()                                {}
func (c *mockClient) Close()                              { c.closed = true }
