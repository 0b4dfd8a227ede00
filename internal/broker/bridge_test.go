package broker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chatrelay/backend/internal/broker"
	"chatrelay/backend/internal/engine"
	"chatrelay/backend/internal/models"
)

type capturedRequest struct {
	path string
	body map[string]any
}

func newCapturingServer(t *testing.T, status int, out *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.path = r.URL.Path
		if r.ContentLength > 0 {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&out.body))
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"status":"ok"}`))
	}))
}

func TestClient_OpenEmbedsConversationIDInCallback(t *testing.T) {
	var captured capturedRequest
	srv := newCapturingServer(t, http.StatusOK, &captured)
	defer srv.Close()

	c := broker.NewClient("tcp://broker:61616", "http://unused", srv.URL, "http://relay:5000/messages", time.Second)
	err := c.Open(context.Background(), "conv-42", models.KindTopic)

	assert.NoError(t, err)
	assert.Equal(t, "/connect", captured.path)
	assert.Equal(t, "tcp://broker:61616", captured.body["brokerUrl"])
	assert.Equal(t, "http://relay:5000/messages/conv-42", captured.body["apiUrl"])
	assert.Equal(t, "conv-42", captured.body["name"])
	assert.Equal(t, "TOPIC", captured.body["type"])
}

func TestClient_PublishPayload(t *testing.T) {
	var captured capturedRequest
	srv := newCapturingServer(t, http.StatusOK, &captured)
	defer srv.Close()

	c := broker.NewClient("tcp://broker:61616", srv.URL, "http://unused", "http://relay:5000/messages", time.Second)
	err := c.Publish(context.Background(), "conv-42", "ALICE", "hello there", models.KindQueue)

	assert.NoError(t, err)
	assert.Equal(t, "/send_message", captured.path)
	assert.Equal(t, "conv-42", captured.body["name"])
	assert.Equal(t, "ALICE", captured.body["username"])
	assert.Equal(t, "hello there", captured.body["message"])
	assert.Equal(t, "QUEUE", captured.body["type"])
}

func TestClient_CloseHitsDisconnect(t *testing.T) {
	var captured capturedRequest
	srv := newCapturingServer(t, http.StatusOK, &captured)
	defer srv.Close()

	c := broker.NewClient("tcp://broker:61616", "http://unused", srv.URL, "http://relay:5000/messages", time.Second)
	assert.NoError(t, c.Close(context.Background()))
	assert.Equal(t, "/disconnect", captured.path)
}

func TestClient_NonSuccessSurfacesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("no such destination"))
	}))
	defer srv.Close()

	c := broker.NewClient("tcp://broker:61616", srv.URL, srv.URL, "http://relay:5000/messages", time.Second)
	err := c.Publish(context.Background(), "conv-42", "ALICE", "hi", models.KindQueue)

	var upstream *engine.UpstreamError
	assert.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.Equal(t, "no such destination", upstream.Body)
}

func TestClient_TimeoutIsAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := broker.NewClient("tcp://broker:61616", srv.URL, srv.URL, "http://relay:5000/messages", 20*time.Millisecond)
	err := c.Publish(context.Background(), "conv-42", "ALICE", "hi", models.KindQueue)

	assert.Error(t, err)
}
